package monitor

import (
	"testing"
	"time"
)

func TestAlertDwellExpiry(t *testing.T) {
	a := NewAlertController(50 * time.Millisecond)

	if a.State().Visible {
		t.Fatal("new controller should be idle")
	}

	a.Trigger()
	state := a.State()
	if !state.Visible || state.ExpiresAt == nil {
		t.Fatalf("state after trigger = %+v", state)
	}

	time.Sleep(100 * time.Millisecond)
	if a.State().Visible {
		t.Fatal("alert should fall back to idle after dwell")
	}
	if a.State().ExpiresAt != nil {
		t.Fatal("idle state should have nil expiry")
	}
}

// 驻留期内再次检出顺延到期时间，不叠加第二个驻留期
func TestAlertDwellExtension(t *testing.T) {
	a := NewAlertController(80 * time.Millisecond)

	a.Trigger()
	time.Sleep(50 * time.Millisecond)
	a.Trigger() // 第一个驻留期还剩 30ms 时顺延

	// 首次驻留期已过，但顺延后还应可见
	time.Sleep(50 * time.Millisecond)
	if !a.State().Visible {
		t.Fatal("alert should stay visible after extension")
	}

	time.Sleep(80 * time.Millisecond)
	if a.State().Visible {
		t.Fatal("alert should expire after extended dwell")
	}
}

func TestAlertClear(t *testing.T) {
	a := NewAlertController(time.Minute)

	a.Trigger()
	a.Clear()
	if a.State().Visible {
		t.Fatal("clear should force idle")
	}
	// 已是 Idle 时重复 Clear 无副作用
	a.Clear()
}

func TestAlertSubscribe(t *testing.T) {
	a := NewAlertController(40 * time.Millisecond)

	ch, unsubscribe := a.Subscribe()
	defer unsubscribe()

	a.Trigger()
	select {
	case state := <-ch:
		if !state.Visible {
			t.Fatalf("first event = %+v, want visible", state)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after trigger")
	}

	select {
	case state := <-ch:
		if state.Visible {
			t.Fatalf("second event = %+v, want idle", state)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after dwell expiry")
	}
}
