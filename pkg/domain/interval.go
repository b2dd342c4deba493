package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TimeUnit is the unit of a TimeStepInterval.
type TimeUnit string

// Supported time units, ordered from smallest to largest in Units.
const (
	Milliseconds TimeUnit = "milliseconds"
	Seconds      TimeUnit = "seconds"
	Minutes      TimeUnit = "minutes"
	Hours        TimeUnit = "hours"
	Days         TimeUnit = "days"
	Weeks        TimeUnit = "weeks"
	Months       TimeUnit = "months"
	Years        TimeUnit = "years"
	Decades      TimeUnit = "decades"
	Centuries    TimeUnit = "centuries"
)

// Units lists every unit from smallest to largest.
var Units = []TimeUnit{Milliseconds, Seconds, Minutes, Hours, Days, Weeks, Months, Years, Decades, Centuries}

// MeanMonthMillis is the mean Gregorian month, used for fractional calendar steps.
const MeanMonthMillis = 2_629_746_000

var fixedUnitMillis = map[TimeUnit]int64{
	Milliseconds: 1,
	Seconds:      1000,
	Minutes:      60 * 1000,
	Hours:        60 * 60 * 1000,
	Days:         24 * 60 * 60 * 1000,
	Weeks:        7 * 24 * 60 * 60 * 1000,
}

var calendarUnitMonths = map[TimeUnit]int{
	Months:    1,
	Years:     12,
	Decades:   120,
	Centuries: 1200,
}

var unitAliases = map[string]TimeUnit{
	"ms": Milliseconds, "millisecond": Milliseconds, "milliseconds": Milliseconds,
	"s": Seconds, "sec": Seconds, "second": Seconds, "seconds": Seconds,
	"m": Minutes, "min": Minutes, "minute": Minutes, "minutes": Minutes,
	"h": Hours, "hr": Hours, "hour": Hours, "hours": Hours,
	"d": Days, "day": Days, "days": Days,
	"w": Weeks, "wk": Weeks, "week": Weeks, "weeks": Weeks,
	"mo": Months, "mon": Months, "month": Months, "months": Months,
	"y": Years, "yr": Years, "year": Years, "years": Years,
	"decade": Decades, "decades": Decades,
	"century": Centuries, "centuries": Centuries,
}

// ParseTimeUnit resolves a unit name or abbreviation.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown time unit %q", s)
	}
	return u, nil
}

// IsCalendar reports whether the unit has variable length (months and up).
func (u TimeUnit) IsCalendar() bool {
	_, ok := calendarUnitMonths[u]
	return ok
}

// Millis returns the fixed length of the unit in milliseconds. Calendar units
// report their mean length.
func (u TimeUnit) Millis() float64 {
	if ms, ok := fixedUnitMillis[u]; ok {
		return float64(ms)
	}
	if months, ok := calendarUnitMonths[u]; ok {
		return float64(months) * MeanMonthMillis
	}
	return 0
}

// Valid reports whether u is a known unit.
func (u TimeUnit) Valid() bool {
	_, fixed := fixedUnitMillis[u]
	return fixed || u.IsCalendar()
}

// TimeStepInterval is a step duration expressed as magnitude and unit.
type TimeStepInterval struct {
	Magnitude float64  `json:"magnitude"`
	Unit      TimeUnit `json:"unit"`
}

// NewTimeStepInterval builds an interval after validating unit and sign.
func NewTimeStepInterval(magnitude float64, unit TimeUnit) (TimeStepInterval, error) {
	if !unit.Valid() {
		return TimeStepInterval{}, fmt.Errorf("unknown time unit %q", unit)
	}
	if magnitude < 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return TimeStepInterval{}, fmt.Errorf("%w: step magnitude %v", ErrInvalidDomain, magnitude)
	}
	return TimeStepInterval{Magnitude: magnitude, Unit: unit}, nil
}

// ParseTimeStepInterval accepts "3 days", "3d", "1.5h" or "250 ms".
func ParseTimeStepInterval(s string) (TimeStepInterval, error) {
	s = strings.TrimSpace(s)
	split := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsDigit(r) || r == '.' || r == '-' || r == '+')
	})
	if split <= 0 {
		return TimeStepInterval{}, fmt.Errorf("invalid step interval %q", s)
	}
	magnitude, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return TimeStepInterval{}, fmt.Errorf("invalid step magnitude %q: %w", s[:split], err)
	}
	unit, err := ParseTimeUnit(s[split:])
	if err != nil {
		return TimeStepInterval{}, err
	}
	return NewTimeStepInterval(magnitude, unit)
}

// Positive reports whether stepping with the interval makes progress.
func (i TimeStepInterval) Positive() bool {
	return i.Magnitude > 0 && i.Unit.Valid()
}

// Millis approximates the interval in milliseconds.
func (i TimeStepInterval) Millis() float64 {
	return i.Magnitude * i.Unit.Millis()
}

// AddTo returns t advanced by n intervals. ok is false when the result is not
// representable.
func (i TimeStepInterval) AddTo(t time.Time, n int) (time.Time, bool) {
	if n == 0 || i.Magnitude == 0 {
		return t, Representable(t)
	}
	if months, ok := calendarUnitMonths[i.Unit]; ok {
		total := i.Magnitude * float64(n) * float64(months)
		whole, frac := math.Modf(total)
		if math.Abs(whole) > 12*20000 {
			return t, false
		}
		out := t.AddDate(0, int(whole), 0)
		if !Representable(out) {
			return out, false
		}
		if frac != 0 {
			return AddMillis(out, int64(math.Round(frac*MeanMonthMillis)))
		}
		return out, true
	}
	ms := i.Millis() * float64(n)
	if math.IsInf(ms, 0) || math.Abs(ms) > float64(MaxInstant.UnixMilli()-MinInstant.UnixMilli()) {
		return t, false
	}
	whole, frac := math.Modf(ms)
	out, ok := AddMillis(t, int64(whole))
	if !ok {
		return out, false
	}
	if frac != 0 {
		out = out.Add(time.Duration(math.Round(frac * float64(time.Millisecond))))
	}
	return out, Representable(out)
}

func (i TimeStepInterval) String() string {
	mag := strconv.FormatFloat(i.Magnitude, 'f', -1, 64)
	unit := string(i.Unit)
	if i.Magnitude == 1 {
		unit = strings.TrimSuffix(unit, "s")
		if i.Unit == Centuries {
			unit = "century"
		}
	}
	return mag + " " + unit
}
