package core

import "time"

// Debouncer coalesces bursts of Trigger calls into one trailing call of fn,
// delay after the last trigger. A zero delay runs fn synchronously.
type Debouncer struct {
	sched   Scheduler
	delay   time.Duration
	fn      func()
	handle  Handle
	pending bool
}

// NewDebouncer binds fn to sched.
func NewDebouncer(sched Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{sched: sched, delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	if d.delay <= 0 {
		d.Stop()
		d.fn()
		return
	}
	if d.pending {
		d.sched.Cancel(d.handle)
	}
	d.pending = true
	d.handle = d.sched.Schedule(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	if !d.pending {
		return
	}
	d.pending = false
	d.fn()
}

// Flush runs a pending call immediately. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	if !d.pending {
		return false
	}
	d.sched.Cancel(d.handle)
	d.pending = false
	d.fn()
	return true
}

// Stop drops a pending call.
func (d *Debouncer) Stop() {
	if d.pending {
		d.sched.Cancel(d.handle)
		d.pending = false
	}
}

// Pending reports whether a call is waiting for the quiet period to end.
func (d *Debouncer) Pending() bool { return d.pending }
