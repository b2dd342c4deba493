package core_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

// 300 usable units over 30 days: 10 units per day.
var track = core.TrackGeometry{Length: 320, ThumbInset: 10}

func TestDragControllerTimeDelta(t *testing.T) {
	c := core.NewDragController(january(t), track, domain.PinState{})
	ms, ok := c.TimeDelta(10)
	if !ok || ms != int64(24*time.Hour/time.Millisecond) {
		t.Fatalf("TimeDelta(10) = %d, %v", ms, ok)
	}
	flat := core.NewDragController(january(t), core.TrackGeometry{Length: 10, ThumbInset: 5}, domain.PinState{})
	if _, ok := flat.TimeDelta(10); ok {
		t.Fatalf("expected unusable track to be rejected")
	}
}

func TestDragControllerCompute(t *testing.T) {
	d := january(t)
	cases := []struct {
		name   string
		pins   domain.PinState
		origin domain.TimeExtent
		kind   core.DragKind
		delta  float64
		want   domain.TimeExtent
		ok     bool
	}{
		{"window moves", domain.PinState{}, span(5, 8), core.WholeWindow, 20, span(7, 10), true},
		{"window abuts end", domain.PinState{}, span(5, 8), core.WholeWindow, 1000, span(28, 31), true},
		{"window abuts start", domain.PinState{}, span(5, 8), core.WholeWindow, -1000, span(1, 4), true},
		{"window beyond representable range", domain.PinState{}, span(5, 8), core.WholeWindow, math.MaxFloat64, span(28, 31), true},
		{"start thumb", domain.PinState{}, span(5, 8), core.StartThumb, -30, span(2, 8), true},
		{"start thumb clamps onto end", domain.PinState{}, span(5, 8), core.StartThumb, 500, domain.NewInstant(jan(8)), true},
		{"end thumb", domain.PinState{}, span(5, 8), core.EndThumb, 14, span(5, 9), true},
		{"end thumb clamps at boundary", domain.PinState{}, span(5, 8), core.EndThumb, 5000, span(5, 31), true},
		{"pinned start rejects its thumb", domain.PinState{StartPinned: true}, span(5, 8), core.StartThumb, 10, span(5, 8), false},
		{"pinned end rejects window", domain.PinState{EndPinned: true}, span(5, 8), core.WholeWindow, 10, span(5, 8), false},
		{"pinned start allows end thumb", domain.PinState{StartPinned: true}, span(5, 8), core.EndThumb, 10, span(5, 9), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := core.NewDragController(d, track, tc.pins)
			got, ok := c.Compute(tc.origin, tc.kind, tc.delta)
			if ok != tc.ok {
				t.Fatalf("Compute ok = %v, want %v", ok, tc.ok)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("Compute = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDragKeepsWindowInsideFullExtent(t *testing.T) {
	d := january(t)
	c := core.NewDragController(d, track, domain.PinState{})
	rng := rand.New(rand.NewSource(42))
	kinds := []core.DragKind{core.StartThumb, core.EndThumb, core.WholeWindow}
	current := span(10, 14)
	for i := 0; i < 1000; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		delta := (rng.Float64() - 0.5) * 800
		next, ok := c.Compute(current, kind, delta)
		if !ok {
			t.Fatalf("drag %d rejected", i)
		}
		if !d.FullExtent().ContainsExtent(next) || !next.Valid() {
			t.Fatalf("drag %d (%s by %.1f) left %s outside the full extent", i, kind, delta, next)
		}
		if kind == core.WholeWindow && !current.IsInstant() {
			before := d.IndexOf(current.End) - d.IndexOf(current.Start)
			after := d.IndexOf(next.End) - d.IndexOf(next.Start)
			if before != after {
				t.Fatalf("window drag changed width from %d to %d steps", before, after)
			}
		}
		current = next
	}
}

func TestDragControllerPositionMapping(t *testing.T) {
	c := core.NewDragController(january(t), track, domain.PinState{})
	if got := c.TimeToPosition(jan(1)); got != 10 {
		t.Fatalf("TimeToPosition(start) = %v", got)
	}
	if got := c.TimeToPosition(jan(31)); got != 310 {
		t.Fatalf("TimeToPosition(end) = %v", got)
	}
	if got := c.PositionToTime(60); !got.Equal(jan(6)) {
		t.Fatalf("PositionToTime(60) = %s", got)
	}
	if got := c.PositionToTime(-50); !got.Equal(jan(1)) {
		t.Fatalf("PositionToTime below track = %s", got)
	}
	if got := c.PositionToTime(1e9); !got.Equal(jan(31)) {
		t.Fatalf("PositionToTime above track = %s", got)
	}
}
