package core_test

import (
	"testing"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

func stepsOf(n int) ([]time.Time, domain.TimeExtent) {
	steps := make([]time.Time, n)
	for i := range steps {
		steps[i] = jan(1).Add(time.Duration(i) * time.Hour)
	}
	if n == 0 {
		return steps, domain.NewInstant(jan(1))
	}
	return steps, domain.TimeExtent{Start: steps[0], End: steps[n-1]}
}

func majors(ticks []domain.TickPlacement) []int {
	var out []int
	for i, tk := range ticks {
		if tk.IsMajor {
			out = append(out, i)
		}
	}
	return out
}

func TestTickLayoutNoOverlappingLabels(t *testing.T) {
	engine := core.NewTickLayoutEngine(nil, 0)
	const spacing = 4.0
	for _, length := range []float64{0, 40, 300, 1200, 8000} {
		for n := 0; n <= 500; n++ {
			steps, full := stepsOf(n)
			ticks := engine.Layout(core.TickLayoutRequest{
				Steps:               steps,
				FullExtent:          full,
				TrackLength:         length,
				MinimumLabelSpacing: spacing,
				Format:              "Jan 2 15:04",
			})
			if len(ticks) != n {
				t.Fatalf("n=%d: got %d ticks", n, len(ticks))
			}
			m := majors(ticks)
			if n > 0 && len(m) == 0 {
				t.Fatalf("n=%d length=%v: no major tick", n, length)
			}
			if len(m) == 1 {
				continue
			}
			for i := 1; i < len(m); i++ {
				a, b := ticks[m[i-1]], ticks[m[i]]
				right := a.Position*length + core.EstimateLabelWidth(a.Label)/2
				left := b.Position*length - core.EstimateLabelWidth(b.Label)/2
				if right+spacing > left {
					t.Fatalf("n=%d length=%v: labels %d and %d overlap", n, length, m[i-1], m[i])
				}
			}
		}
	}
}

func TestTickLayoutCentresMajorTicks(t *testing.T) {
	engine := core.NewTickLayoutEngine(nil, 0)
	steps, full := stepsOf(10)
	ticks := engine.Layout(core.TickLayoutRequest{Steps: steps, FullExtent: full, TrackLength: 10000, Format: "15:04"})
	// k=2 over 10 steps leaves one spare step, which goes to the end
	want := []int{0, 2, 4, 6, 8}
	got := majors(ticks)
	if len(got) != len(want) {
		t.Fatalf("majors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("majors = %v, want %v", got, want)
		}
	}
	if ticks[0].Label != "00:00" || ticks[1].Label != "" {
		t.Fatalf("unexpected labels %q %q", ticks[0].Label, ticks[1].Label)
	}

	steps, full = stepsOf(9)
	got = majors(engine.Layout(core.TickLayoutRequest{Steps: steps, FullExtent: full, TrackLength: 100, Format: "15:04"}))
	// every other label collides; k=3 fits with one spare step on each side
	if len(got) != 3 || got[0] != 1 || got[1] != 4 || got[2] != 7 {
		t.Fatalf("majors = %v", got)
	}
}

func TestTickLayoutFallsBackToMiddleStep(t *testing.T) {
	engine := core.NewTickLayoutEngine(nil, 0)
	steps, full := stepsOf(4)
	got := majors(engine.Layout(core.TickLayoutRequest{Steps: steps, FullExtent: full, TrackLength: 0, Format: "15:04"}))
	// positions 0, 1/3, 2/3, 1: the two middle steps tie, the earlier wins
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("majors = %v", got)
	}

	single, full := stepsOf(1)
	ticks := engine.Layout(core.TickLayoutRequest{Steps: single, FullExtent: full, TrackLength: 0, Format: "15:04"})
	if len(ticks) != 1 || !ticks[0].IsMajor || ticks[0].Position != 0 {
		t.Fatalf("single step layout = %+v", ticks)
	}
}

func TestTickLayoutIsCached(t *testing.T) {
	calls := 0
	measure := func(label string) float64 {
		calls++
		return core.EstimateLabelWidth(label)
	}
	engine := core.NewTickLayoutEngine(measure, 8)
	steps, full := stepsOf(24)
	req := core.TickLayoutRequest{Steps: steps, FullExtent: full, TrackLength: 600, Format: "15:04"}
	first := engine.Layout(req)
	measured := calls
	if measured != 24 {
		t.Fatalf("expected 24 measurements, got %d", measured)
	}
	first[0].Label = "mutated"
	second := engine.Layout(req)
	if calls != measured {
		t.Fatalf("cached layout measured again")
	}
	if second[0].Label == "mutated" {
		t.Fatalf("cache returned a shared slice")
	}
	req.TrackLength = 601
	engine.Layout(req)
	if calls == measured {
		t.Fatalf("different track length should miss the cache")
	}
	engine.Purge()
}

func TestDefaultLabelFormat(t *testing.T) {
	cases := map[domain.TimeUnit]string{
		domain.Years:   "2006",
		domain.Months:  "Jan 2006",
		domain.Days:    "2006-01-02",
		domain.Hours:   "Jan 2 15:04",
		domain.Seconds: "15:04:05",
	}
	for unit, want := range cases {
		if got := core.DefaultLabelFormat(&domain.TimeStepInterval{Magnitude: 1, Unit: unit}); got != want {
			t.Fatalf("DefaultLabelFormat(%s) = %q, want %q", unit, got, want)
		}
	}
	if got := core.DefaultLabelFormat(nil); got != "2006-01-02" {
		t.Fatalf("DefaultLabelFormat(nil) = %q", got)
	}
}
