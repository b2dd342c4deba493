package core

import (
	"timeslider/pkg/domain"
)

// ExtentSnapper aligns candidate windows to the steps of a TimeDomain.
type ExtentSnapper struct {
	domain *TimeDomain
}

// NewExtentSnapper binds a snapper to d.
func NewExtentSnapper(d *TimeDomain) ExtentSnapper {
	return ExtentSnapper{domain: d}
}

// Snap returns the step-aligned window nearest to candidate. It never fails:
// out-of-range values are clamped. With preserveSpan the window keeps the
// step width of previous while its start follows candidate.
func (s ExtentSnapper) Snap(previous, candidate domain.TimeExtent, preserveSpan bool) domain.TimeExtent {
	d := s.domain
	clamped := d.FullExtent().Clamp(candidate)
	if d.Empty() {
		return clamped
	}
	last := d.LastIndex()

	if clamped.IsInstant() || last == 0 {
		i := d.NearestIndex(clamped.Start)
		return domain.NewInstant(d.Step(i))
	}

	startIdx := d.NearestIndex(clamped.Start)
	if preserveSpan {
		width := s.stepWidth(previous)
		if width <= 0 {
			width = d.NearestIndex(clamped.End) - startIdx
			if width < 1 {
				width = 1
			}
		}
		if width > last {
			width = last
		}
		if startIdx+width > last {
			startIdx = last - width
		}
		return domain.TimeExtent{Start: d.Step(startIdx), End: d.Step(startIdx + width)}
	}

	// a true span needs its start step strictly before the window end
	if startIdx > 0 && !d.Step(startIdx).Before(clamped.End) {
		startIdx--
	}
	if startIdx >= last {
		startIdx = last - 1
	}
	endIdx := d.NearestIndex(clamped.End)
	if endIdx <= startIdx {
		endIdx = startIdx + 1
	}
	return domain.TimeExtent{Start: d.Step(startIdx), End: d.Step(endIdx)}
}

// stepWidth is the step-index distance between the endpoints of e, each
// resolved to its nearest step.
func (s ExtentSnapper) stepWidth(e domain.TimeExtent) int {
	if e.IsZero() || !e.Valid() {
		return 0
	}
	clamped := s.domain.FullExtent().Clamp(e)
	return s.domain.NearestIndex(clamped.End) - s.domain.NearestIndex(clamped.Start)
}
