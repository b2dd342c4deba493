package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timeslider/pkg/domain"
)

func (a *app) stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Manage saved slider states",
	}
	cmd.AddCommand(a.stateSaveCmd(), a.stateLoadCmd(), a.stateListCmd(), a.stateDeleteCmd())
	return cmd
}

func (a *app) stateSaveCmd() *cobra.Command {
	var f sliderFlags
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save the slider described by the flags under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.buildSlider(ctx, f, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			store, err := a.openStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			rec, err := store.Save(ctx, args[0], s.Snapshot())
			if err != nil {
				return err
			}
			a.logger.Info("state saved", "name", rec.Name, "driver", a.cfg.Storage.Driver)
			return a.printJSON(rec)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) stateLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load NAME",
		Short: "Print a saved state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			rec, err := store.Load(ctx, args[0])
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no saved state named %q", args[0])
			}
			if err != nil {
				return err
			}
			return a.printJSON(rec)
		},
	}
}

func (a *app) stateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			recs, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				if err := a.printf("%s\t%s\t%s\n", rec.Name, rec.UpdatedAt.Format(time.RFC3339), rec.State.CurrentExtent); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) stateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no saved state named %q", args[0])
			}
			return a.printf("deleted %s\n", args[0])
		},
	}
}
