package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

var (
	errNothingToPlay   = errors.New("no steps to play through")
	errPlaybackTimeout = errors.New("realtime playback timed out")
)

func (a *app) playCmd() *cobra.Command {
	var (
		f        sliderFlags
		ticks    int
		realtime bool
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Animate the window through the steps",
		Long: "Play advances the window one step per playback interval, honouring pins,\n" +
			"direction and loop mode. Virtual time is used unless --realtime is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if realtime {
				return a.playRealtime(cmd.Context(), f, ticks, timeout)
			}
			return a.playVirtual(cmd.Context(), f, ticks)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&ticks, "ticks", 10, "stop after this many playback ticks (0 plays until playback stops itself)")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "tick on the wall clock instead of virtual time")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "give up on realtime playback after this long")
	return cmd
}

// maxVirtualTicks bounds virtual playback when --ticks is 0 and a loop mode
// would otherwise play forever.
const maxVirtualTicks = 10000

func (a *app) playVirtual(ctx context.Context, f sliderFlags, ticks int) error {
	sched := core.NewManualScheduler()
	s, err := a.buildSlider(ctx, f, sched)
	if err != nil {
		return err
	}
	defer s.Close()
	s.Pause()

	var printErr error
	frame := 0
	unsubscribe := s.OnCurrentExtentChanged(func(_, next domain.TimeExtent) {
		frame++
		if printErr == nil {
			printErr = a.printf("%d\t%s\n", frame, next)
		}
	})
	defer unsubscribe()

	if !s.Play() {
		return errNothingToPlay
	}
	limit := ticks
	if limit <= 0 {
		limit = maxVirtualTicks
	}
	for i := 0; i < limit && s.IsPlaying(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sched.Advance(s.PlaybackInterval())
	}
	s.Pause()
	return printErr
}

func (a *app) playRealtime(ctx context.Context, f sliderFlags, ticks int, timeout time.Duration) error {
	loop := core.NewLoopScheduler()
	defer loop.Close()

	var (
		s        *core.Slider
		err      error
		started  bool
		frame    int
		printErr error
		done     = make(chan struct{})
		once     sync.Once
	)
	finish := func() { once.Do(func() { close(done) }) }
	if doErr := loop.Do(func() {
		s, err = a.buildSlider(ctx, f, loop)
		if err != nil {
			return
		}
		s.Pause()
		s.OnCurrentExtentChanged(func(_, next domain.TimeExtent) {
			frame++
			if printErr == nil {
				printErr = a.printf("%d\t%s\n", frame, next)
			}
			if printErr != nil || (ticks > 0 && frame >= ticks) {
				s.Pause()
			}
		})
		s.OnPropertyChanged(func(name string) {
			if name == core.PropIsPlaying && !s.IsPlaying() {
				finish()
			}
		})
		started = s.Play()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}
	defer func() { _ = loop.Do(s.Close) }()
	if !started {
		return errNothingToPlay
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		var perr error
		if doErr := loop.Do(func() { perr = printErr }); doErr != nil {
			return doErr
		}
		return perr
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		var frames int
		_ = loop.Do(func() { frames = frame })
		a.logger.Warn("realtime playback timed out", "timeout", timeout.String(), "frames", frames)
		return fmt.Errorf("%w after %s (%d frames)", errPlaybackTimeout, timeout, frames)
	}
}
