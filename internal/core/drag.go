package core

import (
	"fmt"
	"math"
	"time"

	"timeslider/pkg/domain"
)

// DragKind identifies what a pointer drag moves.
type DragKind int

// Drag targets.
const (
	StartThumb DragKind = iota
	EndThumb
	WholeWindow
)

func (k DragKind) String() string {
	switch k {
	case StartThumb:
		return "start_thumb"
	case EndThumb:
		return "end_thumb"
	case WholeWindow:
		return "whole_window"
	}
	return fmt.Sprintf("DragKind(%d)", int(k))
}

// TrackGeometry describes the slider track in rendering units. ThumbInset is
// the space reserved at each end of the track for half a thumb.
type TrackGeometry struct {
	Length     float64 `json:"length"`
	ThumbInset float64 `json:"thumb_inset"`
}

// Usable returns the length that maps onto the full extent.
func (g TrackGeometry) Usable() float64 {
	u := g.Length - 2*g.ThumbInset
	if u < 0 || math.IsNaN(u) {
		return 0
	}
	return u
}

// DragController converts drag distances along the track into step-aligned
// windows.
type DragController struct {
	domain   *TimeDomain
	geometry TrackGeometry
	pins     domain.PinState
}

// NewDragController binds a controller to the domain, track and pin state.
func NewDragController(d *TimeDomain, g TrackGeometry, pins domain.PinState) DragController {
	return DragController{domain: d, geometry: g, pins: pins}
}

// TimeDelta converts a track distance to milliseconds of time.
func (c DragController) TimeDelta(delta float64) (int64, bool) {
	usable := c.geometry.Usable()
	span := c.domain.FullExtent().Span()
	if usable <= 0 || span <= 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, false
	}
	ms := delta * float64(span) / usable
	limit := float64(domain.MaxInstant.UnixMilli() - domain.MinInstant.UnixMilli())
	switch {
	case ms > limit:
		ms = limit
	case ms < -limit:
		ms = -limit
	}
	return int64(math.Round(ms)), true
}

// TimeToPosition maps t onto the track, inset included.
func (c DragController) TimeToPosition(t time.Time) float64 {
	return c.geometry.ThumbInset + c.domain.Position(c.domain.FullExtent().ClampTime(t))*c.geometry.Usable()
}

// PositionToTime maps a track coordinate back to a time within the full extent.
func (c DragController) PositionToTime(x float64) time.Time {
	full := c.domain.FullExtent()
	usable := c.geometry.Usable()
	if usable <= 0 {
		return full.Start
	}
	frac := (x - c.geometry.ThumbInset) / usable
	frac = math.Max(0, math.Min(1, frac))
	t, ok := domain.AddMillis(full.Start, int64(math.Round(frac*float64(full.Span()))))
	if !ok {
		return full.End
	}
	return full.ClampTime(t)
}

// Compute drags kind of origin by delta track units and returns the snapped
// result. ok is false when the drag is rejected: a pinned endpoint, an
// unusable track or a degenerate extent.
func (c DragController) Compute(origin domain.TimeExtent, kind DragKind, delta float64) (domain.TimeExtent, bool) {
	if !c.allowed(kind) {
		return origin, false
	}
	dt, ok := c.TimeDelta(delta)
	if !ok {
		return origin, false
	}
	full := c.domain.FullExtent()
	origin = full.Clamp(origin)
	snapper := NewExtentSnapper(c.domain)

	switch kind {
	case WholeWindow:
		candidate := translateWithin(full, origin, dt)
		return snapper.Snap(origin, candidate, true), true
	case StartThumb:
		start, ok := domain.AddMillis(origin.Start, dt)
		if !ok {
			start = overflowTarget(dt, full.Start, origin.End)
		}
		start = clampTime(start, full.Start, origin.End)
		return snapper.Snap(origin, domain.TimeExtent{Start: start, End: origin.End}, false), true
	case EndThumb:
		end, ok := domain.AddMillis(origin.End, dt)
		if !ok {
			end = overflowTarget(dt, origin.Start, full.End)
		}
		end = clampTime(end, origin.Start, full.End)
		return snapper.Snap(origin, domain.TimeExtent{Start: origin.Start, End: end}, false), true
	}
	return origin, false
}

func (c DragController) allowed(kind DragKind) bool {
	switch kind {
	case StartThumb:
		return !c.pins.StartPinned
	case EndThumb:
		return !c.pins.EndPinned
	case WholeWindow:
		return !c.pins.StartPinned && !c.pins.EndPinned
	}
	return false
}

// translateWithin shifts window by dt milliseconds. A window pushed past a
// boundary abuts it instead, keeping its width.
func translateWithin(full, window domain.TimeExtent, dt int64) domain.TimeExtent {
	width := window.Span()
	start, okStart := domain.AddMillis(window.Start, dt)
	end, okEnd := domain.AddMillis(window.End, dt)
	if dt < 0 && (!okStart || start.Before(full.Start)) {
		end, _ = domain.AddMillis(full.Start, width)
		return domain.TimeExtent{Start: full.Start, End: full.ClampTime(end)}
	}
	if dt > 0 && (!okEnd || end.After(full.End)) {
		start, _ = domain.AddMillis(full.End, -width)
		return domain.TimeExtent{Start: full.ClampTime(start), End: full.End}
	}
	return domain.TimeExtent{Start: start, End: end}
}

func overflowTarget(dt int64, low, high time.Time) time.Time {
	if dt < 0 {
		return low
	}
	return high
}

func clampTime(t, low, high time.Time) time.Time {
	if t.Before(low) {
		return low
	}
	if t.After(high) {
		return high
	}
	return t
}
