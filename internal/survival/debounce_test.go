package survival

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() {
		fired.Add(1)
	})

	for i := 0; i < 5; i++ {
		d.Notify()
	}

	time.Sleep(200 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestDebouncer_SteadyStreamStillFires(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() {
		fired.Add(1)
	})

	// A rescheduling debouncer would starve here: notifications keep
	// arriving well inside the delay window.
	stop := time.After(450 * time.Millisecond)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case <-tick.C:
			d.Notify()
		case <-stop:
			break loop
		}
	}
	d.Cancel()

	if got := fired.Load(); got < 2 {
		t.Errorf("fired %d times during steady edits, want at least 2", got)
	}
}

func TestDebouncer_CancelDropsPendingFire(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() {
		fired.Add(1)
	})

	d.Notify()
	if !d.Pending() {
		t.Fatal("Pending() = false after Notify")
	}
	d.Cancel()
	if d.Pending() {
		t.Error("Pending() = true after Cancel")
	}

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("fired %d times after Cancel, want 0", got)
	}
}

func TestDebouncer_CancelIdempotent(t *testing.T) {
	d := NewDebouncer(50*time.Millisecond, func() {})
	d.Cancel()
	d.Notify()
	d.Cancel()
	d.Cancel()
}

func TestDebouncer_SetDelayAppliesToNextArm(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(10*time.Second, func() {
		fired.Add(1)
	})

	d.SetDelay(30 * time.Millisecond)
	d.Notify()

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Error("fire did not use the updated delay")
	}
}

func TestDebouncer_RearmsAfterFire(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() {
		fired.Add(1)
	})

	d.Notify()
	time.Sleep(100 * time.Millisecond)
	d.Notify()
	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 2 {
		t.Errorf("fired %d times, want 2", got)
	}
}
