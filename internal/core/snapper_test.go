package core_test

import (
	"math/rand"
	"testing"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

func span(a, b int) domain.TimeExtent {
	return domain.TimeExtent{Start: jan(a), End: jan(b)}
}

func TestSnapWithoutStepsClamps(t *testing.T) {
	d, err := core.BuildTimeDomain(span(1, 31), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := core.NewExtentSnapper(d)
	got := s.Snap(span(1, 31), domain.TimeExtent{Start: jan(1).Add(-time.Hour), End: jan(3).Add(time.Minute)}, false)
	want := domain.TimeExtent{Start: jan(1), End: jan(3).Add(time.Minute)}
	if !got.Equal(want) {
		t.Fatalf("Snap = %s, want %s", got, want)
	}
}

func TestSnapCases(t *testing.T) {
	s := core.NewExtentSnapper(january(t))
	cases := []struct {
		name      string
		previous  domain.TimeExtent
		candidate domain.TimeExtent
		preserve  bool
		want      domain.TimeExtent
	}{
		{
			name:      "instant snaps to nearest step",
			candidate: domain.NewInstant(jan(4).Add(10 * time.Hour)),
			want:      domain.NewInstant(jan(4)),
		},
		{
			name:      "endpoints snap independently",
			candidate: domain.TimeExtent{Start: jan(2).Add(3 * time.Hour), End: jan(9).Add(20 * time.Hour)},
			want:      span(2, 10),
		},
		{
			name:      "span start steps back before the window end",
			candidate: domain.TimeExtent{Start: jan(5).Add(13 * time.Hour), End: jan(5).Add(14 * time.Hour)},
			want:      span(5, 6),
		},
		{
			name:      "reversed candidate collapses onto its start",
			candidate: domain.TimeExtent{Start: jan(8), End: jan(3)},
			want:      domain.NewInstant(jan(8)),
		},
		{
			name:      "span clamped at the end becomes an instant",
			candidate: domain.TimeExtent{Start: jan(31), End: jan(31).Add(time.Hour)},
			want:      domain.NewInstant(jan(31)),
		},
		{
			name:      "preserve span keeps previous width",
			previous:  span(2, 5),
			candidate: domain.TimeExtent{Start: jan(10).Add(2 * time.Hour), End: jan(11)},
			preserve:  true,
			want:      span(10, 13),
		},
		{
			name:      "preserve span abuts the last step",
			previous:  span(2, 5),
			candidate: span(29, 31),
			preserve:  true,
			want:      span(28, 31),
		},
		{
			name:      "preserve span from an instant uses candidate width",
			previous:  domain.NewInstant(jan(3)),
			candidate: span(6, 8),
			preserve:  true,
			want:      span(6, 8),
		},
		{
			name:      "out of range candidate is clamped",
			candidate: domain.TimeExtent{Start: jan(1).AddDate(-1, 0, 0), End: jan(31).AddDate(1, 0, 0)},
			want:      span(1, 31),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Snap(tc.previous, tc.candidate, tc.preserve)
			if !got.Equal(tc.want) {
				t.Fatalf("Snap(%s) = %s, want %s", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestSnapSingleStepDomainAlwaysReturnsThatStep(t *testing.T) {
	d, err := core.BuildTimeDomain(domain.NewInstant(jan(5)), daily())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := core.NewExtentSnapper(d).Snap(domain.TimeExtent{}, span(1, 31), false)
	if !got.Equal(domain.NewInstant(jan(5))) {
		t.Fatalf("Snap = %s", got)
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	d := january(t)
	s := core.NewExtentSnapper(d)
	rng := rand.New(rand.NewSource(7))
	lo := jan(1).AddDate(0, 0, -5).UnixMilli()
	hi := jan(31).AddDate(0, 0, 5).UnixMilli()
	for i := 0; i < 500; i++ {
		a := time.UnixMilli(lo + rng.Int63n(hi-lo)).UTC()
		b := time.UnixMilli(lo + rng.Int63n(hi-lo)).UTC()
		if b.Before(a) {
			a, b = b, a
		}
		candidate := domain.TimeExtent{Start: a, End: b}
		once := s.Snap(candidate, candidate, false)
		twice := s.Snap(once, once, false)
		if !once.Equal(twice) {
			t.Fatalf("snap not idempotent for %s: %s then %s", candidate, once, twice)
		}
		if !d.FullExtent().ContainsExtent(once) || d.IndexOf(once.Start) < 0 || d.IndexOf(once.End) < 0 {
			t.Fatalf("snapped %s is not step aligned within %s", once, d.FullExtent())
		}
	}
}
