package core

import (
	"testing"
	"time"

	"timeslider/pkg/domain"
)

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func januaryDomain(t *testing.T) *TimeDomain {
	t.Helper()
	d, err := BuildTimeDomain(domain.TimeExtent{Start: jan(1), End: jan(31)}, &domain.TimeStepInterval{Magnitude: 1, Unit: domain.Days})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d
}

func idx(d *TimeDomain, a, b int) domain.TimeExtent {
	return domain.TimeExtent{Start: d.Step(a), End: d.Step(b)}
}

func TestMoveBySteps(t *testing.T) {
	d := januaryDomain(t)
	cases := []struct {
		name    string
		current domain.TimeExtent
		pins    domain.PinState
		delta   int
		want    domain.TimeExtent
		applied int
		outcome stepOutcome
	}{
		{"translate forward", idx(d, 2, 4), domain.PinState{}, 3, idx(d, 5, 7), 3, stepMoved},
		{"translate backward partially", idx(d, 2, 4), domain.PinState{}, -5, idx(d, 0, 2), 2, stepBoundary},
		{"at last step", idx(d, 28, 30), domain.PinState{}, 1, idx(d, 28, 30), 0, stepBoundary},
		{"start pinned grows end", idx(d, 2, 4), domain.PinState{StartPinned: true}, 2, idx(d, 2, 6), 2, stepMoved},
		{"start pinned end collapses onto start", idx(d, 2, 4), domain.PinState{StartPinned: true}, -3, idx(d, 2, 2), 2, stepBlocked},
		{"start pinned instant opens and closes", idx(d, 9, 9), domain.PinState{StartPinned: true}, 2, idx(d, 9, 11), 2, stepMoved},
		{"start pinned instant cannot shrink", idx(d, 9, 9), domain.PinState{StartPinned: true}, -1, idx(d, 9, 9), 0, stepBlocked},
		{"end pinned moves start", idx(d, 2, 4), domain.PinState{EndPinned: true}, -2, idx(d, 0, 4), 2, stepMoved},
		{"end pinned start meets end", idx(d, 3, 4), domain.PinState{EndPinned: true}, 1, idx(d, 4, 4), 1, stepMoved},
		{"end pinned start cannot cross", idx(d, 3, 4), domain.PinState{EndPinned: true}, 2, idx(d, 4, 4), 1, stepBlocked},
		{"both pinned", idx(d, 2, 4), domain.PinState{StartPinned: true, EndPinned: true}, 1, idx(d, 2, 4), 0, stepBlocked},
		{"instant translates", idx(d, 5, 5), domain.PinState{}, 1, idx(d, 6, 6), 1, stepMoved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := moveBySteps(d, tc.current, tc.pins, tc.delta)
			if !got.extent.Equal(tc.want) || got.applied != tc.applied || got.outcome != tc.outcome {
				t.Fatalf("moveBySteps = {%s %d %d}, want {%s %d %d}",
					got.extent, got.applied, got.outcome, tc.want, tc.applied, tc.outcome)
			}
		})
	}
}

func TestWrapWindow(t *testing.T) {
	d := januaryDomain(t)
	got, ok := wrapWindow(d, idx(d, 28, 30), domain.PinState{}, domain.Forward)
	if !ok || !got.Equal(idx(d, 0, 2)) {
		t.Fatalf("forward wrap = %s, %v", got, ok)
	}
	got, ok = wrapWindow(d, idx(d, 0, 3), domain.PinState{}, domain.Backward)
	if !ok || !got.Equal(idx(d, 27, 30)) {
		t.Fatalf("backward wrap = %s, %v", got, ok)
	}
	got, ok = wrapWindow(d, idx(d, 4, 30), domain.PinState{StartPinned: true}, domain.Forward)
	if !ok || !got.Equal(idx(d, 4, 4)) {
		t.Fatalf("start pinned wrap = %s, %v", got, ok)
	}
	got, ok = wrapWindow(d, idx(d, 0, 9), domain.PinState{EndPinned: true}, domain.Backward)
	if !ok || !got.Equal(idx(d, 9, 9)) {
		t.Fatalf("end pinned wrap = %s, %v", got, ok)
	}
	if _, ok := wrapWindow(d, idx(d, 30, 30), domain.PinState{StartPinned: true}, domain.Forward); ok {
		t.Fatalf("pinned instant at the last step has nowhere to wrap")
	}
	if _, ok := wrapWindow(d, idx(d, 0, 9), domain.PinState{StartPinned: true, EndPinned: true}, domain.Forward); ok {
		t.Fatalf("both pinned should not wrap")
	}
}

func TestPlaybackSchedulerCadence(t *testing.T) {
	s := NewManualScheduler()
	ticks := 0
	var p *PlaybackScheduler
	p = NewPlaybackScheduler(s, 0, func() {
		ticks++
		if ticks == 3 {
			p.Stop()
		}
	})
	if p.Interval() != DefaultPlaybackInterval {
		t.Fatalf("default interval = %v", p.Interval())
	}
	p.SetInterval(100 * time.Millisecond)
	p.Start()
	p.Start()
	s.Advance(time.Second)
	if ticks != 3 || p.IsPlaying() {
		t.Fatalf("ticks = %d playing = %v", ticks, p.IsPlaying())
	}
	if s.Pending() != 0 {
		t.Fatalf("stopped playback left %d timers", s.Pending())
	}
}

func TestPlaybackSchedulerIntervalChangeRestartsCadence(t *testing.T) {
	s := NewManualScheduler()
	ticks := 0
	p := NewPlaybackScheduler(s, time.Second, func() { ticks++ })
	p.Start()
	s.Advance(900 * time.Millisecond)
	p.SetInterval(500 * time.Millisecond)
	s.Advance(400 * time.Millisecond)
	if ticks != 0 {
		t.Fatalf("tick fired before the new interval elapsed")
	}
	s.Advance(100 * time.Millisecond)
	if ticks != 1 {
		t.Fatalf("ticks = %d", ticks)
	}
	p.Stop()
}
