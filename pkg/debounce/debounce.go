// Package debounce delays a call until its input stays quiet for a period.
package debounce

import (
	"sync"
	"time"
)

// A Debouncer runs the latest scheduled function once the delay elapses
// without another call to [Debouncer.Do].
//
// Scheduling a function discards the pending one.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do cancels the pending function and schedules fn.
//
// It is a no-op after [Debouncer.Stop].
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()

	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen || d.stopped {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel discards the pending function.
// It reports whether a function was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending reports whether a function waits for the delay to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending function and disables the debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() bool {
	d.gen++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}
