package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeStepInterval(t *testing.T) {
	cases := []struct {
		in   string
		want TimeStepInterval
	}{
		{"3 days", TimeStepInterval{Magnitude: 3, Unit: Days}},
		{"3d", TimeStepInterval{Magnitude: 3, Unit: Days}},
		{"1.5h", TimeStepInterval{Magnitude: 1.5, Unit: Hours}},
		{"250 ms", TimeStepInterval{Magnitude: 250, Unit: Milliseconds}},
		{"2 mo", TimeStepInterval{Magnitude: 2, Unit: Months}},
		{"1 century", TimeStepInterval{Magnitude: 1, Unit: Centuries}},
	}
	for _, tc := range cases {
		got, err := ParseTimeStepInterval(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "days", "3 fortnights", "x3d"} {
		if _, err := ParseTimeStepInterval(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if _, err := ParseTimeStepInterval("-1 d"); !errors.Is(err, ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain for negative magnitude, got %v", err)
	}
}

func TestTimeStepIntervalAddToCalendar(t *testing.T) {
	start := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	iv := TimeStepInterval{Magnitude: 1, Unit: Years}
	got, ok := iv.AddTo(start, 3)
	if !ok || !got.Equal(time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("AddTo years = %s, %v", got, ok)
	}
	half := TimeStepInterval{Magnitude: 0.5, Unit: Months}
	got, ok = half.AddTo(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 1)
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(MeanMonthMillis/2) * time.Millisecond)
	if !ok || !got.Equal(want) {
		t.Fatalf("AddTo half month = %s, want %s", got, want)
	}
	if _, ok := (TimeStepInterval{Magnitude: 1, Unit: Centuries}).AddTo(MaxInstant, 1); ok {
		t.Fatalf("expected overflow past the representable range")
	}
}

func TestTimeStepIntervalAddToFixed(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	iv := TimeStepInterval{Magnitude: 1.5, Unit: Hours}
	got, ok := iv.AddTo(start, 2)
	if !ok || !got.Equal(start.Add(3*time.Hour)) {
		t.Fatalf("AddTo = %s, %v", got, ok)
	}
	frac := TimeStepInterval{Magnitude: 0.25, Unit: Milliseconds}
	got, _ = frac.AddTo(start, 3)
	if !got.Equal(start.Add(750 * time.Microsecond)) {
		t.Fatalf("sub-millisecond step = %s", got)
	}
}

func TestTimeStepIntervalString(t *testing.T) {
	cases := map[TimeStepInterval]string{
		{Magnitude: 1, Unit: Days}:      "1 day",
		{Magnitude: 3, Unit: Days}:      "3 days",
		{Magnitude: 1, Unit: Centuries}: "1 century",
		{Magnitude: 2.5, Unit: Hours}:   "2.5 hours",
	}
	for iv, want := range cases {
		if got := iv.String(); got != want {
			t.Fatalf("String(%+v) = %q, want %q", iv, got, want)
		}
	}
}
