package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gowvp/vigil/internal/conf"
)

// Core 采集循环编排器
// 固定周期 P 录制时长 R 的片段 (R < P)，片段异步送检，推理延迟绝不拖慢采集节奏
type Core struct {
	source   CaptureSource
	analyzer Analyzer
	alert    *AlertController
	conf     *conf.Monitor

	m          sync.Mutex
	running    bool
	generation uint64
	cancel     context.CancelFunc
	session    CaptureSession
	startedAt  time.Time
	lastErr    error
	wg         sync.WaitGroup

	seq       atomic.Uint64
	segments  atomic.Uint64
	failures  atomic.Uint64
	coalesced atomic.Uint64
}

// Start 打开采集会话并启动采集循环
// 设备打不开返回 ErrDeviceUnavailable；重复启动返回 ErrAlreadyRunning
func (c *Core) Start(ctx context.Context) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	session, err := c.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.session = session
	c.cancel = cancel
	c.running = true
	c.startedAt = time.Now()
	c.lastErr = nil
	c.generation++

	c.wg.Add(1)
	go c.captureLoop(runCtx, session, c.generation)

	slog.Info("monitor started",
		"source", c.conf.Source,
		"period", c.conf.Period.Duration().String(),
		"record", c.conf.Record.Duration().String(),
	)
	return nil
}

// Stop 取消周期定时器，终止在途录制，释放采集会话并清除告警
// 停止之后才到达的推理结果不再生效（见 submit 的代次校验）
func (c *Core) Stop() error {
	c.m.Lock()
	if !c.running {
		c.m.Unlock()
		return ErrNotRunning
	}
	c.running = false
	c.generation++
	cancel := c.cancel
	session := c.session
	c.session = nil
	c.m.Unlock()

	cancel()
	c.wg.Wait()
	if session != nil {
		_ = session.Close()
	}
	c.alert.Clear()
	slog.Info("monitor stopped")
	return nil
}

// captureLoop 采集主循环
// 周期触发严格按启动顺序串行录制；录制完成即进入下一轮，不等待推理返回
func (c *Core) captureLoop(ctx context.Context, session CaptureSession, gen uint64) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.conf.Period.Duration())
	defer ticker.Stop()

	// 首轮立即开始，不等首个周期
	c.runCycle(ctx, session, gen)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(ctx, session, gen)
			// 录制超时挤压出的触发与下一周期合并，不叠加第二路录制
			select {
			case <-ticker.C:
				c.coalesced.Add(1)
			default:
			}
		}
	}
}

// runCycle 执行一个采集周期：录制、定格为片段、异步送检
func (c *Core) runCycle(ctx context.Context, session CaptureSession, gen uint64) {
	capturedAt := time.Now()
	data, err := session.Record(ctx, c.conf.Record.Duration())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// 设备中途出错视为致命，停止循环并向上暴露，不做静默重试
		devErr := fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		slog.Error("capture cycle failed, stopping monitor", "err", err)
		c.m.Lock()
		c.lastErr = devErr
		c.m.Unlock()
		go func() { _ = c.Stop() }()
		return
	}

	seg := &Segment{
		ID:         uuid.NewString(),
		Seq:        c.seq.Add(1),
		Bytes:      data,
		MimeType:   c.conf.MimeType,
		CapturedAt: capturedAt,
	}
	c.segments.Add(1)

	c.wg.Add(1)
	go c.submit(ctx, seg, gen)
}

// submit 将片段送检并把结论喂给告警控制器
// 单段失败只记录不中断循环；结果按到达顺序生效，停止后到达的结果丢弃
func (c *Core) submit(ctx context.Context, seg *Segment, gen uint64) {
	defer c.wg.Done()

	verdict, err := c.analyzer.AnalyzeSegment(ctx, seg)
	if err != nil {
		c.failures.Add(1)
		slog.ErrorContext(ctx, "segment analysis failed",
			"segment", seg.ID, "seq", seg.Seq, "err", err)
		return
	}

	c.m.Lock()
	stale := gen != c.generation
	c.m.Unlock()
	if stale || ctx.Err() != nil {
		slog.Debug("discard stale result", "segment", seg.ID, "seq", seg.Seq)
		return
	}

	if verdict.Violent {
		c.alert.Trigger()
	}
}

// Alert 返回本实例的告警控制器
func (c *Core) Alert() *AlertController { return c.alert }

// State 返回运行快照
func (c *Core) State() State {
	c.m.Lock()
	defer c.m.Unlock()

	s := State{
		Running:   c.running,
		Source:    c.conf.Source,
		Segments:  c.segments.Load(),
		Failures:  c.failures.Load(),
		Coalesced: c.coalesced.Load(),
		Alert:     c.alert.State(),
	}
	if c.running {
		t := c.startedAt
		s.StartedAt = &t
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
