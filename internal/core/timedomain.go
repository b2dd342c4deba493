package core

import (
	"fmt"
	"sort"
	"time"

	"timeslider/pkg/domain"
)

// MaxTimeSteps caps step generation for pathological interval/extent pairs.
const MaxTimeSteps = 1 << 20

// stepTolerance absorbs floating point drift of fractional intervals: a step
// landing within it of the full extent end is placed exactly on the end.
const stepTolerance = time.Millisecond

// TimeDomain is the immutable full extent of a slider and its derived,
// strictly increasing step sequence.
type TimeDomain struct {
	fullExtent domain.TimeExtent
	interval   *domain.TimeStepInterval
	steps      []time.Time
	truncated  bool
}

// BuildTimeDomain generates the steps start, start+interval, ... up to the
// full extent end. A nil or zero interval yields no steps.
func BuildTimeDomain(full domain.TimeExtent, interval *domain.TimeStepInterval) (*TimeDomain, error) {
	if !full.Valid() {
		return nil, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidDomain,
			full.End.Format(time.RFC3339), full.Start.Format(time.RFC3339))
	}
	d := &TimeDomain{fullExtent: full}
	if interval == nil {
		return d, nil
	}
	if interval.Magnitude < 0 {
		return nil, fmt.Errorf("%w: step magnitude %v", domain.ErrInvalidDomain, interval.Magnitude)
	}
	iv := *interval
	d.interval = &iv
	if !iv.Positive() {
		return d, nil
	}
	d.steps, d.truncated = generateSteps(full, iv)
	return d, nil
}

func generateSteps(full domain.TimeExtent, iv domain.TimeStepInterval) ([]time.Time, bool) {
	var steps []time.Time
	for i := 0; i < MaxTimeSteps; i++ {
		t, ok := iv.AddTo(full.Start, i)
		if !ok {
			return steps, false
		}
		if t.After(full.End) {
			if t.Sub(full.End) >= stepTolerance || (len(steps) > 0 && steps[len(steps)-1].Equal(full.End)) {
				return steps, false
			}
			t = full.End
		} else if !t.Equal(full.End) && full.End.Sub(t) < stepTolerance {
			next, ok := iv.AddTo(full.Start, i+1)
			if !ok || next.After(full.End) {
				t = full.End
			}
		}
		if len(steps) > 0 && !t.After(steps[len(steps)-1]) {
			// interval below clock resolution
			return steps, false
		}
		steps = append(steps, t)
		if t.Equal(full.End) {
			return steps, false
		}
	}
	return steps, true
}

// FullExtent returns the full time range.
func (d *TimeDomain) FullExtent() domain.TimeExtent { return d.fullExtent }

// StepInterval returns a copy of the interval, or nil when unset.
func (d *TimeDomain) StepInterval() *domain.TimeStepInterval {
	if d.interval == nil {
		return nil
	}
	iv := *d.interval
	return &iv
}

// Steps returns a copy of the step sequence.
func (d *TimeDomain) Steps() []time.Time {
	out := make([]time.Time, len(d.steps))
	copy(out, d.steps)
	return out
}

// Len returns the number of steps.
func (d *TimeDomain) Len() int { return len(d.steps) }

// Empty reports whether the domain has no steps.
func (d *TimeDomain) Empty() bool { return len(d.steps) == 0 }

// Truncated reports whether generation stopped at MaxTimeSteps.
func (d *TimeDomain) Truncated() bool { return d.truncated }

// Step returns step i.
func (d *TimeDomain) Step(i int) time.Time { return d.steps[i] }

// LastIndex returns the index of the final step, or -1.
func (d *TimeDomain) LastIndex() int { return len(d.steps) - 1 }

// IndexOf returns the index of the step equal to t, or -1.
func (d *TimeDomain) IndexOf(t time.Time) int {
	i := sort.Search(len(d.steps), func(i int) bool { return !d.steps[i].Before(t) })
	if i < len(d.steps) && d.steps[i].Equal(t) {
		return i
	}
	return -1
}

// NearestIndex returns the index of the step closest to t; equal distances
// resolve to the earlier step. It returns -1 for an empty domain.
func (d *TimeDomain) NearestIndex(t time.Time) int {
	n := len(d.steps)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return !d.steps[i].Before(t) })
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	}
	if compareDistance(t, d.steps[i-1], d.steps[i]) <= 0 {
		return i - 1
	}
	return i
}

// Position maps t to its fraction of the full extent.
func (d *TimeDomain) Position(t time.Time) float64 {
	span := d.fullExtent.Span()
	if span <= 0 {
		return 0
	}
	return float64(t.UnixMilli()-d.fullExtent.Start.UnixMilli()) / float64(span)
}

// Divide splits extent into count equal parts and expresses one part in the
// largest unit with a whole magnitude. When no unit divides evenly, the
// day-or-smaller unit with the smallest magnitude above one is used.
func Divide(extent domain.TimeExtent, count int) (domain.TimeStepInterval, error) {
	if !extent.Valid() {
		return domain.TimeStepInterval{}, fmt.Errorf("%w: end before start", domain.ErrInvalidDomain)
	}
	if count < 1 {
		return domain.TimeStepInterval{}, fmt.Errorf("%w: step count %d", domain.ErrInvalidDomain, count)
	}
	span := extent.Span()
	if span == 0 {
		return domain.TimeStepInterval{Magnitude: 0, Unit: domain.Milliseconds}, nil
	}
	if iv, ok := divideCalendar(extent, count); ok {
		return iv, nil
	}
	if span%int64(count) == 0 {
		part := span / int64(count)
		for _, unit := range []domain.TimeUnit{domain.Weeks, domain.Days, domain.Hours, domain.Minutes, domain.Seconds, domain.Milliseconds} {
			unitMs := int64(unit.Millis())
			if part%unitMs == 0 {
				return domain.TimeStepInterval{Magnitude: float64(part / unitMs), Unit: unit}, nil
			}
		}
	}
	part := float64(span) / float64(count)
	for _, unit := range []domain.TimeUnit{domain.Days, domain.Hours, domain.Minutes, domain.Seconds, domain.Milliseconds} {
		if v := part / unit.Millis(); v > 1 {
			return domain.TimeStepInterval{Magnitude: v, Unit: unit}, nil
		}
	}
	return domain.TimeStepInterval{Magnitude: part, Unit: domain.Milliseconds}, nil
}

func divideCalendar(extent domain.TimeExtent, count int) (domain.TimeStepInterval, bool) {
	start := extent.Start
	end := extent.End.In(start.Location())
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months <= 0 || !start.AddDate(0, months, 0).Equal(end) {
		return domain.TimeStepInterval{}, false
	}
	for _, unit := range []domain.TimeUnit{domain.Centuries, domain.Decades, domain.Years, domain.Months} {
		per := int(unit.Millis() / domain.MeanMonthMillis)
		if months%(count*per) != 0 {
			continue
		}
		mag := months / (count * per)
		if mag == 0 {
			continue
		}
		return domain.TimeStepInterval{Magnitude: float64(mag), Unit: unit}, true
	}
	return domain.TimeStepInterval{}, false
}

// compareDistance compares |t-a| with |t-b| without time.Duration saturation.
func compareDistance(t, a, b time.Time) int {
	as, an := absDiff(t, a)
	bs, bn := absDiff(t, b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	case an < bn:
		return -1
	case an > bn:
		return 1
	}
	return 0
}

func absDiff(x, y time.Time) (int64, int64) {
	if x.Before(y) {
		x, y = y, x
	}
	sec := x.Unix() - y.Unix()
	nsec := int64(x.Nanosecond()) - int64(y.Nanosecond())
	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}
	return sec, nsec
}
