package monitor

import (
	"sync"
	"time"
)

// AlertState 告警状态快照，只由 AlertController 写入
type AlertState struct {
	Visible   bool       `json:"visible"`
	ExpiresAt *time.Time `json:"expires_at"` // Idle 时为 nil
}

// AlertController 两态告警状态机 {Idle, Visible}
// 检出暴力即转 Visible 并在驻留期后自动回落；驻留期内再次检出只顺延到期时间，
// 不排队不叠加，最近一次检出胜出
type AlertController struct {
	m         sync.Mutex
	dwell     time.Duration
	visible   bool
	expiresAt time.Time
	timer     *time.Timer

	subs    map[int]chan AlertState
	nextSub int
}

func NewAlertController(dwell time.Duration) *AlertController {
	return &AlertController{
		dwell: dwell,
		subs:  make(map[int]chan AlertState),
	}
}

// Trigger 报告一次暴力检出
// Idle→Visible，或在 Visible 下把到期时间重置为 now+dwell
func (a *AlertController) Trigger() {
	a.m.Lock()
	a.visible = true
	a.expiresAt = time.Now().Add(a.dwell)
	if a.timer == nil {
		a.timer = time.AfterFunc(a.dwell, a.expire)
	} else {
		a.timer.Reset(a.dwell)
	}
	state := a.snapshot()
	a.m.Unlock()

	a.notify(state)
}

// expire 驻留期结束，回落到 Idle
func (a *AlertController) expire() {
	a.m.Lock()
	if !a.visible {
		a.m.Unlock()
		return
	}
	// 定时器触发与 Trigger 并发时以到期时间为准
	if time.Now().Before(a.expiresAt) {
		a.timer.Reset(time.Until(a.expiresAt))
		a.m.Unlock()
		return
	}
	a.visible = false
	a.expiresAt = time.Time{}
	state := a.snapshot()
	a.m.Unlock()

	a.notify(state)
}

// Clear 强制回落到 Idle，编排器停止时调用
func (a *AlertController) Clear() {
	a.m.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	changed := a.visible
	a.visible = false
	a.expiresAt = time.Time{}
	state := a.snapshot()
	a.m.Unlock()

	if changed {
		a.notify(state)
	}
}

// State 返回当前状态快照
func (a *AlertController) State() AlertState {
	a.m.Lock()
	defer a.m.Unlock()
	return a.snapshot()
}

// snapshot 调用方须持有锁
func (a *AlertController) snapshot() AlertState {
	s := AlertState{Visible: a.visible}
	if a.visible {
		t := a.expiresAt
		s.ExpiresAt = &t
	}
	return s
}

// Subscribe 订阅状态变化，返回只读通道与退订函数
// 通道带缓冲，消费不及时会丢弃中间状态，订阅方以最新快照为准
func (a *AlertController) Subscribe() (<-chan AlertState, func()) {
	a.m.Lock()
	id := a.nextSub
	a.nextSub++
	ch := make(chan AlertState, 4)
	a.subs[id] = ch
	a.m.Unlock()

	return ch, func() {
		a.m.Lock()
		defer a.m.Unlock()
		delete(a.subs, id)
	}
}

func (a *AlertController) notify(state AlertState) {
	a.m.Lock()
	defer a.m.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
