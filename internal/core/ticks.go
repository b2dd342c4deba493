package core

import (
	"hash/fnv"
	"math"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"timeslider/pkg/domain"
)

// LabelMeasure returns the rendered width of a label in track units.
type LabelMeasure func(label string) float64

// AverageGlyphWidth is the per-character width assumed by EstimateLabelWidth.
const AverageGlyphWidth = 7.0

// EstimateLabelWidth approximates label width from its rune count.
func EstimateLabelWidth(label string) float64 {
	return float64(utf8.RuneCountInString(label)) * AverageGlyphWidth
}

// DefaultLabelFormat picks a Go time layout suited to the step unit.
func DefaultLabelFormat(interval *domain.TimeStepInterval) string {
	if interval == nil {
		return "2006-01-02"
	}
	switch interval.Unit {
	case domain.Years, domain.Decades, domain.Centuries:
		return "2006"
	case domain.Months:
		return "Jan 2006"
	case domain.Weeks, domain.Days:
		return "2006-01-02"
	case domain.Hours, domain.Minutes:
		return "Jan 2 15:04"
	case domain.Seconds:
		return "15:04:05"
	default:
		return "15:04:05.000"
	}
}

// TickLayoutRequest is the input of a layout pass.
type TickLayoutRequest struct {
	Steps               []time.Time
	FullExtent          domain.TimeExtent
	TrackLength         float64
	MinimumLabelSpacing float64
	Format              string
}

type layoutKey struct {
	count   int
	digest  uint64
	start   int64
	end     int64
	track   float64
	spacing float64
	format  string
	zone    string
}

// TickLayoutEngine selects which steps carry labels. Every k-th step becomes
// a major tick for the smallest k (from 2) whose labels do not collide; the
// remainder is split evenly between both ends of the track. When no k fits,
// the single step closest to the middle is labelled.
type TickLayoutEngine struct {
	measure LabelMeasure
	cache   *lru.Cache[layoutKey, []domain.TickPlacement]
}

// NewTickLayoutEngine returns an engine measuring labels with measure
// (EstimateLabelWidth when nil) and memoising up to cacheSize layouts.
func NewTickLayoutEngine(measure LabelMeasure, cacheSize int) *TickLayoutEngine {
	if measure == nil {
		measure = EstimateLabelWidth
	}
	e := &TickLayoutEngine{measure: measure}
	if cacheSize > 0 {
		if c, err := lru.New[layoutKey, []domain.TickPlacement](cacheSize); err == nil {
			e.cache = c
		}
	}
	return e
}

// Layout places every step as a tick and marks the labelled ones as major.
func (e *TickLayoutEngine) Layout(req TickLayoutRequest) []domain.TickPlacement {
	if len(req.Steps) == 0 {
		return nil
	}
	if req.TrackLength < 0 || math.IsNaN(req.TrackLength) {
		req.TrackLength = 0
	}
	if req.MinimumLabelSpacing < 0 || math.IsNaN(req.MinimumLabelSpacing) {
		req.MinimumLabelSpacing = 0
	}
	var key layoutKey
	if e.cache != nil {
		key = keyFor(req)
		if cached, ok := e.cache.Get(key); ok {
			return clonePlacements(cached)
		}
	}
	out := e.layout(req)
	if e.cache != nil {
		e.cache.Add(key, clonePlacements(out))
	}
	return out
}

// Purge drops memoised layouts.
func (e *TickLayoutEngine) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

func (e *TickLayoutEngine) layout(req TickLayoutRequest) []domain.TickPlacement {
	n := len(req.Steps)
	positions := tickPositions(req)
	labels := make([]string, n)
	widths := make([]float64, n)
	for i, step := range req.Steps {
		labels[i] = step.Format(req.Format)
		widths[i] = e.measure(labels[i])
	}
	out := make([]domain.TickPlacement, n)
	for i, step := range req.Steps {
		out[i] = domain.TickPlacement{Step: step, Position: positions[i]}
	}
	mark := func(i int) {
		out[i].IsMajor = true
		out[i].Label = labels[i]
	}

	if n == 1 {
		mark(0)
		return out
	}
	fits := func(first, k int) bool {
		for a := first; a+k < n; a += k {
			b := a + k
			right := positions[a]*req.TrackLength + widths[a]/2
			left := positions[b]*req.TrackLength - widths[b]/2
			if right+req.MinimumLabelSpacing > left {
				return false
			}
		}
		return true
	}
	maxK := (n + 1) / 2
	for k := 2; k <= maxK; k++ {
		first := ((n - 1) % k) / 2
		if !fits(first, k) {
			continue
		}
		for i := first; i < n; i += k {
			mark(i)
		}
		return out
	}
	mark(middleIndex(positions))
	return out
}

func tickPositions(req TickLayoutRequest) []float64 {
	n := len(req.Steps)
	out := make([]float64, n)
	span := req.FullExtent.Span()
	if span > 0 {
		start := req.FullExtent.Start.UnixMilli()
		for i, s := range req.Steps {
			out[i] = math.Max(0, math.Min(1, float64(s.UnixMilli()-start)/float64(span)))
		}
		return out
	}
	if n > 1 {
		for i := range out {
			out[i] = float64(i) / float64(n-1)
		}
	}
	return out
}

// middleIndex returns the index whose position is closest to 0.5, preferring
// the earlier index on ties.
func middleIndex(positions []float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, p := range positions {
		if d := math.Abs(p - 0.5); d < bestDist-1e-12 {
			best, bestDist = i, d
		}
	}
	return best
}

func keyFor(req TickLayoutRequest) layoutKey {
	h := fnv.New64a()
	var buf [12]byte
	for _, s := range req.Steps {
		ms := uint64(s.UnixMilli())
		ns := uint32(s.Nanosecond())
		for i := 0; i < 8; i++ {
			buf[i] = byte(ms >> (8 * i))
		}
		for i := 0; i < 4; i++ {
			buf[8+i] = byte(ns >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return layoutKey{
		count:   len(req.Steps),
		digest:  h.Sum64(),
		start:   req.FullExtent.Start.UnixMilli(),
		end:     req.FullExtent.End.UnixMilli(),
		track:   req.TrackLength,
		spacing: req.MinimumLabelSpacing,
		format:  req.Format,
		zone:    req.Steps[0].Location().String(),
	}
}

func clonePlacements(in []domain.TickPlacement) []domain.TickPlacement {
	if in == nil {
		return nil
	}
	out := make([]domain.TickPlacement, len(in))
	copy(out, in)
	return out
}
