package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"timeslider/internal/adapters/export"
	"timeslider/internal/core"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		f       sliderFlags
		name    string
		formats []string
		prefix  string
	)
	cmd := &cobra.Command{
		Use:   "export [STATE...]",
		Short: "Render timelines and store them in the blob store",
		Long: "Export renders each named saved state, or the slider described by the\n" +
			"flags when no names are given, and writes one artifact per format.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmts, err := parseFormats(formats)
			if err != nil {
				return err
			}
			timelines, err := a.timelines(ctx, f, name, args)
			if err != nil {
				return err
			}
			store, err := a.openBlobStore(ctx)
			if err != nil {
				return err
			}
			exporter := export.NewExporter(store, export.WithPrefix(prefix), export.WithLogger(a.logger))
			worker := export.NewWorker(exporter, len(timelines))
			worker.Start()
			defer func() { _ = worker.Stop(context.Background()) }()

			ids := make([]string, 0, len(timelines))
			for _, tl := range timelines {
				rec, err := worker.Enqueue(tl, fmts)
				if err != nil {
					return err
				}
				ids = append(ids, rec.ID)
			}
			records := make([]export.Record, 0, len(ids))
			var failed int
			for _, id := range ids {
				rec, err := worker.Wait(ctx, id)
				if err != nil {
					return err
				}
				if rec.Status == export.StatusFailed {
					failed++
				}
				records = append(records, rec)
			}
			if err := a.printJSON(records); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d exports failed", failed, len(records))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&name, "name", "timeline", "timeline name when exporting from flags")
	cmd.Flags().StringSliceVar(&formats, "format", []string{"json", "csv"}, "artifact formats: json, csv, png")
	cmd.Flags().StringVar(&prefix, "prefix", export.DefaultPrefix, "blob key prefix for artifacts")
	return cmd
}

func parseFormats(in []string) ([]export.Format, error) {
	out := make([]export.Format, 0, len(in))
	for _, s := range in {
		f, err := export.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// timelines builds one timeline per saved state in names, or a single one
// from the slider flags.
func (a *app) timelines(ctx context.Context, f sliderFlags, name string, names []string) ([]export.Timeline, error) {
	build := func(f sliderFlags, name string) (export.Timeline, error) {
		s, err := a.buildSlider(ctx, f, nil)
		if err != nil {
			return export.Timeline{}, err
		}
		defer s.Close()
		return export.TimelineFromSlider(name, s, core.ClockFunc(nil).Now()), nil
	}
	if len(names) == 0 {
		tl, err := build(f, name)
		if err != nil {
			return nil, err
		}
		return []export.Timeline{tl}, nil
	}
	out := make([]export.Timeline, 0, len(names))
	for _, n := range names {
		sf := f
		sf.state = n
		tl, err := build(sf, n)
		if err != nil {
			return nil, err
		}
		out = append(out, tl)
	}
	return out, nil
}
