package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

func (a *app) stepsCmd() *cobra.Command {
	var f sliderFlags
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the discrete steps of the time domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.buildSlider(cmd.Context(), f, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Domain().Truncated() {
				a.logger.Warn("step generation truncated", "steps", s.Domain().Len())
			}
			for i, step := range s.Steps() {
				if err := a.printf("%d\t%s\n", i, step.Format(time.RFC3339Nano)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) divideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "divide START END COUNT",
		Short: "Compute the step interval dividing an extent into COUNT parts",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			extent, err := parseExtent(args[0], args[1])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid count %q", args[2])
			}
			iv, err := core.Divide(extent, count)
			if err != nil {
				return err
			}
			return a.printf("%s\n", iv)
		},
	}
}

func (a *app) snapCmd() *cobra.Command {
	var (
		f            sliderFlags
		to           [2]string
		preserveSpan bool
	)
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Snap a proposed window onto the step grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.buildSlider(cmd.Context(), f, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			candidate, err := parseExtent(to[0], to[1])
			if err != nil {
				return err
			}
			snapped := core.NewExtentSnapper(s.Domain()).Snap(s.CurrentExtent(), candidate, preserveSpan)
			return a.printf("%s\n", snapped)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&to[0], "to-start", "", "proposed window start")
	cmd.Flags().StringVar(&to[1], "to-end", "", "proposed window end")
	cmd.Flags().BoolVar(&preserveSpan, "preserve-span", false, "keep the current window's step width")
	_ = cmd.MarkFlagRequired("to-start")
	_ = cmd.MarkFlagRequired("to-end")
	return cmd
}

func (a *app) ticksCmd() *cobra.Command {
	var (
		f      sliderFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Lay out tick marks and labels along the track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.buildSlider(cmd.Context(), f, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ticks := s.TickPlacements()
			if asJSON {
				return a.printJSON(ticks)
			}
			for _, t := range ticks {
				kind := "minor"
				if t.IsMajor {
					kind = "major"
				}
				if err := a.printf("%.4f\t%s\t%s\t%s\n", t.Position, kind, t.Step.Format(time.RFC3339), t.Label); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print placements as JSON")
	return cmd
}

func parseDragKind(s string) (core.DragKind, error) {
	for _, k := range []core.DragKind{core.StartThumb, core.EndThumb, core.WholeWindow} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown drag kind %q (start_thumb, end_thumb, whole_window)", s)
}

func (a *app) dragCmd() *cobra.Command {
	var (
		f     sliderFlags
		kind  string
		delta float64
	)
	cmd := &cobra.Command{
		Use:   "drag",
		Short: "Drag a thumb or the whole window by a track distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := parseDragKind(kind)
			if err != nil {
				return err
			}
			s, err := a.buildSlider(cmd.Context(), f, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			before := s.CurrentExtent()
			if !s.ApplyDrag(k, delta) {
				a.logger.Info("drag rejected", "kind", k.String(), "pins", fmt.Sprintf("%+v", s.Pins()))
			}
			return a.printJSON(struct {
				Before domain.TimeExtent `json:"before"`
				After  domain.TimeExtent `json:"after"`
			}{before, s.CurrentExtent()})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", core.WholeWindow.String(), "start_thumb, end_thumb or whole_window")
	cmd.Flags().Float64Var(&delta, "delta", 0, "track distance to drag (negative moves earlier)")
	return cmd
}
