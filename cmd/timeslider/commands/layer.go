package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timeslider/internal/adapters/layers"
)

func (a *app) layerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Manage time-aware layer documents in the blob store",
	}
	cmd.AddCommand(a.layerPutCmd(), a.layerInfoCmd())
	return cmd
}

func (a *app) layerPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY FILE",
		Short: "Store the layer document in FILE under KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var doc layers.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", args[1], err)
			}
			store, err := a.openBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			info, err := layers.WriteDocument(cmd.Context(), store, args[0], doc)
			if err != nil {
				return err
			}
			return a.printJSON(info)
		},
	}
}

func (a *app) layerInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info KEY",
		Short: "Resolve the time information of a layer document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			info, err := layers.NewBlob(store, args[0]).TimeInfo(cmd.Context())
			if layers.IsMissing(err) {
				return fmt.Errorf("no layer document at %q", args[0])
			}
			if err != nil {
				return err
			}
			return a.printJSON(info)
		},
	}
}
