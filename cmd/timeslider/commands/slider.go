package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timeslider/internal/adapters/layers"
	"timeslider/internal/blob"
	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

// sliderFlags describe where a command's slider comes from: a saved state, a
// layer document in the blob store, or an explicit extent.
type sliderFlags struct {
	state       string
	layer       string
	start       string
	end         string
	interval    string
	steps       int
	windowStart string
	windowEnd   string
	pinStart    bool
	pinEnd      bool
}

func (f *sliderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.state, "state", "", "restore the slider from this saved state")
	fl.StringVar(&f.layer, "layer", "", "initialize from the layer document at this blob key")
	fl.StringVar(&f.start, "start", "", "full extent start (RFC 3339 or YYYY-MM-DD)")
	fl.StringVar(&f.end, "end", "", "full extent end (RFC 3339 or YYYY-MM-DD)")
	fl.StringVar(&f.interval, "interval", "", `step interval, e.g. "1 day" or "6h"`)
	fl.IntVar(&f.steps, "steps", 0, "divide the full extent into this many steps")
	fl.StringVar(&f.windowStart, "window-start", "", "current window start")
	fl.StringVar(&f.windowEnd, "window-end", "", "current window end")
	fl.BoolVar(&f.pinStart, "pin-start", false, "pin the window start")
	fl.BoolVar(&f.pinEnd, "pin-end", false, "pin the window end")
}

// build returns a configured slider. sched may be nil for a virtual-time
// scheduler owned by the slider.
func (a *app) buildSlider(ctx context.Context, f sliderFlags, sched core.Scheduler) (*core.Slider, error) {
	s := core.NewSlider(a.sliderOptions(sched)...)
	if err := a.cfg.Slider.Apply(s); err != nil {
		s.Close()
		return nil, err
	}
	if err := a.initSlider(ctx, s, f); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) initSlider(ctx context.Context, s *core.Slider, f sliderFlags) error {
	switch {
	case f.state != "":
		store, err := a.openStateStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		rec, err := store.Load(ctx, f.state)
		if err != nil {
			return fmt.Errorf("load state %s: %w", f.state, err)
		}
		if err := s.Restore(rec.State); err != nil {
			return err
		}
		s.Pause()
	case f.layer != "":
		store, err := a.openBlobStore(ctx)
		if err != nil {
			return err
		}
		if err := s.InitializeFromTimeAwareLayer(ctx, layers.NewBlob(store, f.layer)); err != nil {
			return fmt.Errorf("initialize from layer %s: %w", f.layer, err)
		}
	default:
		if f.start == "" || f.end == "" {
			return fmt.Errorf("one of --state, --layer or --start/--end is required")
		}
		full, err := parseExtent(f.start, f.end)
		if err != nil {
			return err
		}
		if err := s.SetFullExtent(full); err != nil {
			return err
		}
	}

	switch {
	case f.interval != "":
		iv, err := domain.ParseTimeStepInterval(f.interval)
		if err != nil {
			return err
		}
		if err := s.SetStepInterval(&iv); err != nil {
			return err
		}
	case f.steps > 0:
		if err := s.InitializeTimeSteps(f.steps); err != nil {
			return err
		}
	}

	if f.windowStart != "" || f.windowEnd != "" {
		cur := s.CurrentExtent()
		ws, we := cur.Start, cur.End
		var err error
		if f.windowStart != "" {
			if ws, err = parseTime(f.windowStart); err != nil {
				return err
			}
		}
		if f.windowEnd != "" {
			if we, err = parseTime(f.windowEnd); err != nil {
				return err
			}
		}
		window, err := domain.NewTimeExtent(ws, we)
		if err != nil {
			return err
		}
		s.SetCurrentExtent(window)
	}
	if f.pinStart {
		s.SetStartPinned(true)
	}
	if f.pinEnd {
		s.SetEndPinned(true)
	}
	return nil
}

func (a *app) openStateStore(ctx context.Context) (core.StateStore, error) {
	sc, err := a.cfg.Storage.Core()
	if err != nil {
		return nil, err
	}
	return core.OpenStateStore(ctx, sc)
}

func (a *app) openBlobStore(ctx context.Context) (blob.Store, error) {
	bc, err := a.cfg.Blob.Blob()
	if err != nil {
		return nil, err
	}
	return blob.Open(ctx, bc)
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func parseExtent(start, end string) (domain.TimeExtent, error) {
	st, err := parseTime(start)
	if err != nil {
		return domain.TimeExtent{}, err
	}
	en, err := parseTime(end)
	if err != nil {
		return domain.TimeExtent{}, err
	}
	return domain.NewTimeExtent(st, en)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(a.stdout, format, args...)
	return err
}
