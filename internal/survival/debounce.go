package survival

import (
	"sync"
	"time"
)

// Debouncer coalesces change notifications into a single delayed fire.
// The first notification arms the timer; notifications arriving while
// it is pending are absorbed without rescheduling, so a steady stream
// of edits still fires once per delay window rather than starving the
// refresh forever.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
	fire  func()
}

// NewDebouncer creates a debouncer that calls fire after delay.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Notify records a change. Arms the timer if none is pending,
// otherwise does nothing.
func (d *Debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		return
	}

	arm := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.seq != arm {
			// Cancelled after the timer fired but before it took
			// the lock.
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fire()
	})
}

// Cancel drops any pending fire. Safe to call repeatedly and when
// nothing is pending.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SetDelay changes the delay used the next time the timer is armed.
// A timer already pending keeps its original deadline.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Pending reports whether a fire is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
