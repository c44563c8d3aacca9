package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"topomap/internal/codec"
	"topomap/internal/config"
	"topomap/internal/diagram"
	"topomap/internal/domain"
	"topomap/internal/service"
	"topomap/internal/ui"
)

func newSceneCmd(opts *options) *cobra.Command {
	var (
		tenant  string
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Load one tenant and print the rendered scene",
		Example: `  topomap scene --tenant 12
  topomap scene -t 12 --format yaml > scene.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(true); err != nil {
				return err
			}
			exporter, err := codec.ExporterFor(format)
			if err != nil {
				return err
			}
			if tenant == "" {
				tenant = opts.cfg.View.Tenant
			}
			id := domain.ParseID(tenant)
			if id.IsZero() {
				return errors.New("no tenant: pass --tenant or set view.tenant in the config")
			}

			doc, err := renderScene(cmd.Context(), opts.cfg, id, timeout)
			if err != nil {
				return err
			}
			return exporter.Export(doc, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "tenant to load (default: view.tenant)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", fmt.Sprintf("output format %v", codec.ExportFormats()))
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up if the tenant has not loaded by then")
	return cmd
}

// renderScene runs a diagram until the tenant's snapshot is applied and
// returns the resulting scene with the saved positions.
func renderScene(ctx context.Context, cfg *config.Config, tenant domain.ID, timeout time.Duration) (*codec.Document, error) {
	source, _, err := diagram.OpenSource(cfg)
	if err != nil {
		return nil, err
	}
	kv, err := diagram.OpenPositions(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open position store: %w", err)
	}
	defer kv.Close()

	bus := service.NewEventBus()
	events := make(chan service.Event, 16)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	d := diagram.New(source, kv, ui.Multi{}, bus, diagram.OptionsFromConfig(cfg))

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	if err := d.SelectTenant(runCtx, tenant); err != nil {
		return nil, err
	}
	if err := waitForSnapshot(runCtx, events, tenant); err != nil {
		return nil, err
	}

	scene, err := d.Scene(runCtx)
	if err != nil {
		return nil, err
	}
	positions, err := d.Positions(runCtx)
	if err != nil {
		return nil, err
	}
	return &codec.Document{Scene: scene, Positions: positions}, nil
}

// waitForSnapshot blocks until the bus reports the outcome of loading
// tenant
func waitForSnapshot(ctx context.Context, events <-chan service.Event, tenant domain.ID) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("tenant %s did not load: %w", tenant, ctx.Err())
		case ev := <-events:
			payload, _ := ev.Payload.(map[string]interface{})
			if id, _ := payload["tenant"].(domain.ID); id != tenant {
				continue
			}
			switch ev.Type {
			case service.EventSnapshotApplied:
				return nil
			case service.EventSnapshotFailed:
				return fmt.Errorf("failed to load tenant %s: %v", tenant, payload["error"])
			}
		}
	}
}
