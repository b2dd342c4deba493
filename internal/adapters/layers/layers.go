// Package layers provides domain.TimeAwareLayer implementations: fixed
// metadata, groups that merge their children, and JSON documents read from
// blob storage.
package layers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"timeslider/pkg/domain"
)

// Static is a layer with fixed temporal metadata.
type Static struct {
	Info domain.LayerTimeInfo
}

// TimeInfo implements domain.TimeAwareLayer.
func (s Static) TimeInfo(ctx context.Context) (domain.LayerTimeInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.LayerTimeInfo{}, err
	}
	return s.Info, nil
}

// ErrNoTemporalChildren is returned by a group none of whose children
// produced usable metadata.
var ErrNoTemporalChildren = errors.New("layer group has no time-aware children")

// Group merges its children: the full extent is the union of the children's
// extents, the interval is the smallest child interval, and instantaneous
// time is supported only when every contributing child supports it. A child
// that fails contributes nothing.
type Group struct {
	Children []domain.TimeAwareLayer
}

// NewGroup returns a group over children.
func NewGroup(children ...domain.TimeAwareLayer) Group {
	return Group{Children: children}
}

type childResult struct {
	info domain.LayerTimeInfo
	err  error
}

// TimeInfo resolves all children concurrently.
func (g Group) TimeInfo(ctx context.Context) (domain.LayerTimeInfo, error) {
	results := make([]childResult, len(g.Children))
	var wg sync.WaitGroup
	for i, child := range g.Children {
		if child == nil {
			results[i].err = fmt.Errorf("child %d is nil", i)
			continue
		}
		wg.Add(1)
		go func(i int, child domain.TimeAwareLayer) {
			defer wg.Done()
			info, err := child.TimeInfo(ctx)
			results[i] = childResult{info: info, err: err}
		}(i, child)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return domain.LayerTimeInfo{}, err
	}

	var (
		merged      domain.LayerTimeInfo
		contributed int
		errs        []error
	)
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("child %d: %w", i, r.err))
			continue
		}
		if !r.info.FullTimeExtent.Valid() || r.info.FullTimeExtent.IsZero() {
			continue
		}
		if contributed == 0 {
			merged = domain.LayerTimeInfo{
				FullTimeExtent:            r.info.FullTimeExtent,
				TimeStepInterval:          cloneInterval(r.info.TimeStepInterval),
				SupportsInstantaneousTime: r.info.SupportsInstantaneousTime,
			}
			contributed++
			continue
		}
		contributed++
		merged.FullTimeExtent = union(merged.FullTimeExtent, r.info.FullTimeExtent)
		merged.TimeStepInterval = smaller(merged.TimeStepInterval, r.info.TimeStepInterval)
		merged.SupportsInstantaneousTime = merged.SupportsInstantaneousTime && r.info.SupportsInstantaneousTime
	}
	if contributed == 0 {
		errs = append([]error{ErrNoTemporalChildren}, errs...)
		return domain.LayerTimeInfo{}, errors.Join(errs...)
	}
	return merged, nil
}

func union(a, b domain.TimeExtent) domain.TimeExtent {
	out := a
	if b.Start.Before(out.Start) {
		out.Start = b.Start
	}
	if b.End.After(out.End) {
		out.End = b.End
	}
	return out
}

// smaller picks the positive interval with the shorter nominal length.
func smaller(a, b *domain.TimeStepInterval) *domain.TimeStepInterval {
	switch {
	case b == nil || !b.Positive():
		return a
	case a == nil || !a.Positive():
		return cloneInterval(b)
	case b.Millis() < a.Millis():
		return cloneInterval(b)
	}
	return a
}

func cloneInterval(iv *domain.TimeStepInterval) *domain.TimeStepInterval {
	if iv == nil {
		return nil
	}
	dup := *iv
	return &dup
}
