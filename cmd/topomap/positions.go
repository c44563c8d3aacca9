package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"topomap/internal/codec"
	"topomap/internal/diagram"
	"topomap/internal/layout"
)

func newPositionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Inspect and manage saved node positions",
	}
	cmd.AddCommand(
		newPositionsShowCmd(opts),
		newPositionsImportCmd(opts),
		newPositionsClearCmd(opts),
	)
	return cmd
}

// openCache loads the position cache named by the configuration. The
// returned func closes the underlying store.
func openCache(ctx context.Context, opts *options) (*layout.Cache, func(), error) {
	if err := opts.load(true); err != nil {
		return nil, nil, err
	}
	kv, err := diagram.OpenPositions(opts.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open position store: %w", err)
	}
	cache := layout.NewCache(kv, opts.cfg.Positions.Key)
	cache.Load(ctx)
	return cache, func() { kv.Close() }, nil
}

func newPositionsShowCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved position overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := codec.ExporterFor(format)
			if err != nil {
				return err
			}
			cache, closeStore, err := openCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeStore()

			if cache.Len() == 0 {
				warn.Fprintf(cmd.ErrOrStderr(), "no saved positions under %q\n", cache.Key())
				return nil
			}
			return exporter.Export(&codec.Document{Positions: cache.Positions()}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", fmt.Sprintf("output format %v", codec.ExportFormats()))
	return cmd
}

func newPositionsImportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge positions from a JSON or YAML file into the saved overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer, err := codec.ImporterFor(formatFromPath(args[0]))
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			doc, err := importer.Parse(f)
			if err != nil {
				return err
			}

			cache, closeStore, err := openCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeStore()

			taken, err := cache.Import(cmd.Context(), doc.Positions)
			if err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "imported %d of %d positions\n", taken, len(doc.Positions))
			return nil
		},
	}
	return cmd
}

func newPositionsClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every saved position override",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeStore, err := openCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeStore()

			n := cache.Len()
			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "cleared %d saved positions\n", n)
			return nil
		},
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
