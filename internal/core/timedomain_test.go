package core_test

import (
	"errors"
	"testing"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func daily() *domain.TimeStepInterval {
	return &domain.TimeStepInterval{Magnitude: 1, Unit: domain.Days}
}

func january(t *testing.T) *core.TimeDomain {
	t.Helper()
	d, err := core.BuildTimeDomain(domain.TimeExtent{Start: jan(1), End: jan(31)}, daily())
	if err != nil {
		t.Fatalf("build domain: %v", err)
	}
	return d
}

func assertSteps(t *testing.T, d *core.TimeDomain) {
	t.Helper()
	full := d.FullExtent()
	steps := d.Steps()
	for i, s := range steps {
		if !full.Contains(s) {
			t.Fatalf("step %d (%s) outside %s", i, s, full)
		}
		if i > 0 && !s.After(steps[i-1]) {
			t.Fatalf("steps not strictly increasing at %d: %s then %s", i, steps[i-1], s)
		}
	}
}

func TestBuildTimeDomainDailyJanuary(t *testing.T) {
	d := january(t)
	if d.Len() != 31 {
		t.Fatalf("expected 31 steps, got %d", d.Len())
	}
	if !d.Step(0).Equal(jan(1)) || !d.Step(30).Equal(jan(31)) {
		t.Fatalf("unexpected endpoints %s .. %s", d.Step(0), d.Step(30))
	}
	assertSteps(t, d)
	if d.Truncated() {
		t.Fatalf("31 steps should not be truncated")
	}
}

func TestBuildTimeDomainEndNeedNotBeAStep(t *testing.T) {
	d, err := core.BuildTimeDomain(domain.TimeExtent{Start: jan(1), End: jan(10)}, &domain.TimeStepInterval{Magnitude: 4, Unit: domain.Days})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []time.Time{jan(1), jan(5), jan(9)}
	if d.Len() != len(want) {
		t.Fatalf("expected %d steps, got %v", len(want), d.Steps())
	}
	for i, w := range want {
		if !d.Step(i).Equal(w) {
			t.Fatalf("step %d = %s, want %s", i, d.Step(i), w)
		}
	}
}

func TestBuildTimeDomainFractionalDriftSnapsToEnd(t *testing.T) {
	start := jan(1)
	full := domain.TimeExtent{Start: start, End: start.Add(time.Second)}
	d, err := core.BuildTimeDomain(full, &domain.TimeStepInterval{Magnitude: 1.0 / 3, Unit: domain.Seconds})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d.Len() != 4 {
		t.Fatalf("expected 4 steps, got %v", d.Steps())
	}
	if !d.Step(3).Equal(full.End) {
		t.Fatalf("last step %s should equal end %s", d.Step(3), full.End)
	}
	assertSteps(t, d)
}

func TestBuildTimeDomainWithoutSteps(t *testing.T) {
	full := domain.TimeExtent{Start: jan(1), End: jan(31)}
	for _, iv := range []*domain.TimeStepInterval{nil, {Magnitude: 0, Unit: domain.Days}} {
		d, err := core.BuildTimeDomain(full, iv)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if !d.Empty() || d.NearestIndex(jan(3)) != -1 {
			t.Fatalf("expected no steps for %v", iv)
		}
	}
}

func TestBuildTimeDomainErrors(t *testing.T) {
	if _, err := core.BuildTimeDomain(domain.TimeExtent{Start: jan(2), End: jan(1)}, daily()); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("reversed extent: expected ErrInvalidDomain, got %v", err)
	}
	neg := &domain.TimeStepInterval{Magnitude: -1, Unit: domain.Days}
	if _, err := core.BuildTimeDomain(domain.TimeExtent{Start: jan(1), End: jan(2)}, neg); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("negative magnitude: expected ErrInvalidDomain, got %v", err)
	}
}

func TestBuildTimeDomainTruncatesPathologicalIntervals(t *testing.T) {
	full := domain.TimeExtent{Start: jan(1), End: jan(1).AddDate(1, 0, 0)}
	d, err := core.BuildTimeDomain(full, &domain.TimeStepInterval{Magnitude: 1, Unit: domain.Milliseconds})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !d.Truncated() || d.Len() != core.MaxTimeSteps {
		t.Fatalf("expected truncation at %d, got %d (truncated=%v)", core.MaxTimeSteps, d.Len(), d.Truncated())
	}
}

func TestNearestIndexPrefersEarlierStepOnTies(t *testing.T) {
	d := january(t)
	cases := []struct {
		at   time.Time
		want int
	}{
		{jan(1).Add(-time.Hour), 0},
		{jan(1).Add(12 * time.Hour), 0},
		{jan(1).Add(13 * time.Hour), 1},
		{jan(31).Add(time.Hour), 30},
		{jan(15), 14},
	}
	for _, tc := range cases {
		if got := d.NearestIndex(tc.at); got != tc.want {
			t.Fatalf("NearestIndex(%s) = %d, want %d", tc.at, got, tc.want)
		}
	}
	if d.IndexOf(jan(4)) != 3 || d.IndexOf(jan(4).Add(time.Minute)) != -1 {
		t.Fatalf("IndexOf mismatch")
	}
}

func TestDivide(t *testing.T) {
	y2k := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		extent domain.TimeExtent
		count  int
		want   domain.TimeStepInterval
	}{
		{"ten days", domain.TimeExtent{Start: jan(1), End: jan(31)}, 3, domain.TimeStepInterval{Magnitude: 10, Unit: domain.Days}},
		{"two weeks", domain.TimeExtent{Start: jan(1), End: jan(29)}, 2, domain.TimeStepInterval{Magnitude: 2, Unit: domain.Weeks}},
		{"monthly", domain.TimeExtent{Start: jan(1), End: jan(1).AddDate(1, 0, 0)}, 12, domain.TimeStepInterval{Magnitude: 1, Unit: domain.Months}},
		{"yearly", domain.TimeExtent{Start: jan(1), End: jan(1).AddDate(1, 0, 0)}, 1, domain.TimeStepInterval{Magnitude: 1, Unit: domain.Years}},
		{"century", domain.TimeExtent{Start: y2k, End: y2k.AddDate(100, 0, 0)}, 1, domain.TimeStepInterval{Magnitude: 1, Unit: domain.Centuries}},
		{"quarter century", domain.TimeExtent{Start: y2k, End: y2k.AddDate(100, 0, 0)}, 4, domain.TimeStepInterval{Magnitude: 25, Unit: domain.Years}},
		{"hourly", domain.TimeExtent{Start: jan(1), End: jan(2)}, 24, domain.TimeStepInterval{Magnitude: 1, Unit: domain.Hours}},
		{"instant", domain.NewInstant(jan(1)), 5, domain.TimeStepInterval{Magnitude: 0, Unit: domain.Milliseconds}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := core.Divide(tc.extent, tc.count)
			if err != nil {
				t.Fatalf("divide: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Divide = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDivideFractionalPicksSmallestMagnitudeAboveOne(t *testing.T) {
	got, err := core.Divide(domain.TimeExtent{Start: jan(1), End: jan(2)}, 7)
	if err != nil {
		t.Fatalf("divide: %v", err)
	}
	want := float64(24*time.Hour/time.Millisecond) / 7 / domain.Hours.Millis()
	if got.Unit != domain.Hours || got.Magnitude != want {
		t.Fatalf("Divide = %+v, want %v hours", got, want)
	}
}

func TestDivideErrors(t *testing.T) {
	if _, err := core.Divide(domain.TimeExtent{Start: jan(1), End: jan(2)}, 0); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("count 0: expected ErrInvalidDomain, got %v", err)
	}
	if _, err := core.Divide(domain.TimeExtent{Start: jan(2), End: jan(1)}, 2); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("reversed: expected ErrInvalidDomain, got %v", err)
	}
}
