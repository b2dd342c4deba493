// Package domain defines the value types shared by the time slider engine,
// its persistence backends and the layer collaborators that feed it.
package domain

import (
	"fmt"
	"time"
)

var (
	// MinInstant is the earliest representable time instant.
	MinInstant = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	// MaxInstant is the latest representable time instant.
	MaxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 999_000_000, time.UTC)
)

// Representable reports whether t lies within [MinInstant, MaxInstant].
func Representable(t time.Time) bool {
	return !t.Before(MinInstant) && !t.After(MaxInstant)
}

// TimeExtent is a closed time window. Start == End denotes an instant.
type TimeExtent struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeExtent validates ordering and returns the extent.
func NewTimeExtent(start, end time.Time) (TimeExtent, error) {
	if end.Before(start) {
		return TimeExtent{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidDomain, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeExtent{Start: start, End: end}, nil
}

// NewInstant returns an extent whose start and end coincide.
func NewInstant(t time.Time) TimeExtent {
	return TimeExtent{Start: t, End: t}
}

// IsZero reports whether both endpoints are the zero time.
func (e TimeExtent) IsZero() bool {
	return e.Start.IsZero() && e.End.IsZero()
}

// IsInstant reports whether the extent represents a single moment.
func (e TimeExtent) IsInstant() bool {
	return e.Start.Equal(e.End)
}

// Valid reports whether Start <= End.
func (e TimeExtent) Valid() bool {
	return !e.End.Before(e.Start)
}

// Span returns the extent length in milliseconds. Millisecond arithmetic on
// Unix values keeps spans beyond time.Duration's ~292 year range exact.
func (e TimeExtent) Span() int64 {
	return e.End.UnixMilli() - e.Start.UnixMilli()
}

// Contains reports whether t lies within the extent (inclusive).
func (e TimeExtent) Contains(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// ContainsExtent reports whether other lies entirely within e.
func (e TimeExtent) ContainsExtent(other TimeExtent) bool {
	return e.Contains(other.Start) && e.Contains(other.End)
}

// ClampTime limits t to the extent.
func (e TimeExtent) ClampTime(t time.Time) time.Time {
	if t.Before(e.Start) {
		return e.Start
	}
	if t.After(e.End) {
		return e.End
	}
	return t
}

// Clamp limits both endpoints of other to e and collapses a reversed result
// onto its start.
func (e TimeExtent) Clamp(other TimeExtent) TimeExtent {
	start := e.ClampTime(other.Start)
	end := e.ClampTime(other.End)
	if end.Before(start) {
		end = start
	}
	return TimeExtent{Start: start, End: end}
}

// Equal compares endpoints as instants, ignoring location.
func (e TimeExtent) Equal(other TimeExtent) bool {
	return e.Start.Equal(other.Start) && e.End.Equal(other.End)
}

func (e TimeExtent) String() string {
	if e.IsInstant() {
		return e.Start.Format(time.RFC3339Nano)
	}
	return e.Start.Format(time.RFC3339Nano) + "/" + e.End.Format(time.RFC3339Nano)
}

// AddMillis offsets t by ms milliseconds. ok is false when the result leaves
// the representable range.
func AddMillis(t time.Time, ms int64) (time.Time, bool) {
	const maxDurationMillis = int64(1<<63-1) / int64(time.Millisecond)
	if ms > -maxDurationMillis && ms < maxDurationMillis {
		out := t.Add(time.Duration(ms) * time.Millisecond)
		return out, Representable(out)
	}
	base := t.UnixMilli()
	if (ms > 0 && base > MaxInstant.UnixMilli()-ms) || (ms < 0 && base < MinInstant.UnixMilli()-ms) {
		return t, false
	}
	out := time.UnixMilli(base + ms).In(t.Location())
	return out, Representable(out)
}
