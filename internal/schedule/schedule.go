// Package schedule holds cancellable timer handles used for polling and
// input debouncing.
package schedule

import (
	"sync"
	"time"
)

// Task is a callback scheduled to run once after a delay.
type Task struct {
	timer *time.Timer
}

func After(d time.Duration, fn func()) *Task {
	return &Task{timer: time.AfterFunc(d, fn)}
}

// Cancel stops the task. It reports whether the callback was prevented
// from running. Cancel on a nil Task is a no-op.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	return t.timer.Stop()
}

// Debouncer runs only the last of a burst of calls, delay after the
// burst ends.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	seq     uint64
	pending *Task
	closed  bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.pending.Cancel()
	d.seq++
	seq := d.seq

	d.pending = After(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.closed
		d.mu.Unlock()

		if !current {
			return
		}
		fn()

		d.mu.Lock()
		if seq == d.seq {
			d.pending = nil
		}
		d.mu.Unlock()
	})
}

// Pending reports whether a call is waiting to fire or still running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Close drops any pending call; later Triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.seq++
	d.pending.Cancel()
	d.pending = nil
}
