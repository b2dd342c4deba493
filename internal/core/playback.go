package core

import (
	"time"

	"timeslider/pkg/domain"
)

// DefaultPlaybackInterval is the tick cadence used when none is configured.
const DefaultPlaybackInterval = time.Second

// stepOutcome classifies an attempt to move the window by whole steps.
type stepOutcome int

const (
	stepMoved stepOutcome = iota
	// stepBlocked: pins leave no endpoint free to move that way.
	stepBlocked
	// stepBoundary: the moving endpoint sits on the first or last step.
	stepBoundary
)

// stepMove is the result of moving a window by whole step indices.
type stepMove struct {
	extent  domain.TimeExtent
	applied int
	outcome stepOutcome
}

// moveBySteps moves current by delta step indices, honouring pins. Without
// pins the window translates. A single pinned endpoint leaves the other one
// free; it may collapse onto its partner but never crosses it. The move is
// partial when a limit is hit and the outcome names the limit.
func moveBySteps(d *TimeDomain, current domain.TimeExtent, pins domain.PinState, delta int) stepMove {
	res := stepMove{extent: current}
	if d.Empty() || delta == 0 {
		if d.Empty() && delta != 0 {
			res.outcome = stepBlocked
		}
		return res
	}
	clamped := d.FullExtent().Clamp(current)
	si := d.NearestIndex(clamped.Start)
	ei := d.NearestIndex(clamped.End)
	last := d.LastIndex()
	want := delta
	if want < 0 {
		want = -want
	}

	var room int
	var boundary bool
	switch {
	case pins.StartPinned && pins.EndPinned:
		res.outcome = stepBlocked
		return res
	case pins.StartPinned:
		if delta > 0 {
			room, boundary = last-ei, true
		} else {
			room = ei - si
		}
	case pins.EndPinned:
		if delta < 0 {
			room, boundary = si, true
		} else {
			room = ei - si
		}
	default:
		if delta > 0 {
			room = last - ei
		} else {
			room = si
		}
		boundary = true
	}
	if room < 0 {
		room = 0
	}
	n := want
	if n > room {
		n = room
	}
	if n < want {
		if boundary {
			res.outcome = stepBoundary
		} else {
			res.outcome = stepBlocked
		}
	}
	res.applied = n
	if n == 0 {
		return res
	}
	step := n
	if delta < 0 {
		step = -n
	}
	switch {
	case pins.StartPinned:
		ei += step
	case pins.EndPinned:
		si += step
	default:
		si += step
		ei += step
	}
	res.extent = domain.TimeExtent{Start: d.Step(si), End: d.Step(ei)}
	return res
}

// wrapWindow moves the window to the opposite boundary for LoopRepeat. The
// step width is kept; with one endpoint pinned the free endpoint restarts on
// the pinned one.
func wrapWindow(d *TimeDomain, current domain.TimeExtent, pins domain.PinState, dir domain.PlaybackDirection) (domain.TimeExtent, bool) {
	if d.Empty() || (pins.StartPinned && pins.EndPinned) {
		return current, false
	}
	clamped := d.FullExtent().Clamp(current)
	si := d.NearestIndex(clamped.Start)
	ei := d.NearestIndex(clamped.End)
	last := d.LastIndex()

	switch {
	case pins.StartPinned:
		ei = si
	case pins.EndPinned:
		si = ei
	default:
		width := ei - si
		if dir == domain.Backward {
			si, ei = last-width, last
		} else {
			si, ei = 0, width
		}
	}
	next := domain.TimeExtent{Start: d.Step(si), End: d.Step(ei)}
	return next, !next.Equal(clamped)
}

// PlaybackScheduler is the Stopped/Playing state machine that fires onTick
// every interval on a Scheduler while playing. It owns only the cadence; the
// slider decides what each tick does.
type PlaybackScheduler struct {
	sched    Scheduler
	interval time.Duration
	onTick   func()
	playing  bool
	handle   Handle
}

// NewPlaybackScheduler returns a stopped scheduler.
func NewPlaybackScheduler(sched Scheduler, interval time.Duration, onTick func()) *PlaybackScheduler {
	p := &PlaybackScheduler{sched: sched, onTick: onTick}
	p.SetInterval(interval)
	return p
}

// IsPlaying reports the current state.
func (p *PlaybackScheduler) IsPlaying() bool { return p.playing }

// Interval returns the tick cadence.
func (p *PlaybackScheduler) Interval() time.Duration { return p.interval }

// SetInterval changes the cadence. A running cadence restarts from now.
func (p *PlaybackScheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultPlaybackInterval
	}
	p.interval = d
	if p.playing {
		p.cancel()
		p.arm()
	}
}

// Start enters Playing. It is a no-op when already playing.
func (p *PlaybackScheduler) Start() {
	if p.playing {
		return
	}
	p.playing = true
	p.arm()
}

// Stop enters Stopped and cancels the pending tick.
func (p *PlaybackScheduler) Stop() {
	if !p.playing {
		return
	}
	p.playing = false
	p.cancel()
}

func (p *PlaybackScheduler) arm() {
	p.handle = p.sched.Schedule(p.interval, p.fire)
}

func (p *PlaybackScheduler) cancel() {
	if p.handle != 0 {
		p.sched.Cancel(p.handle)
		p.handle = 0
	}
}

func (p *PlaybackScheduler) fire() {
	p.handle = 0
	if !p.playing {
		return
	}
	p.onTick()
	// onTick may have stopped, or stopped and restarted, playback
	if p.playing && p.handle == 0 {
		p.arm()
	}
}
