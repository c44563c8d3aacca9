package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"topomap/internal/config"
	"topomap/internal/diagram"
	"topomap/internal/handler"
	"topomap/internal/hub"
	"topomap/internal/logging"
	"topomap/internal/service"
	"topomap/internal/watcher"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr, tenant string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram over HTTP with live updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(false); err != nil {
				return err
			}
			if addr != "" {
				opts.cfg.Listen.Addr = addr
			}
			if tenant != "" {
				opts.cfg.View.Tenant = tenant
			}
			logging.Infof("starting topomap %s\n%s", version, opts.cfg.Summary())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "tenant selected at startup (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	source, fixture, err := diagram.OpenSource(cfg)
	if err != nil {
		return err
	}
	kv, err := diagram.OpenPositions(cfg)
	if err != nil {
		return fmt.Errorf("failed to open position store: %w", err)
	}
	defer kv.Close()

	bus := service.NewEventBus()
	sseHub := hub.New()
	surface := hub.NewSurface(sseHub)
	d := diagram.New(source, kv, surface, bus, diagram.OptionsFromConfig(cfg))

	mux := http.NewServeMux()
	handler.NewDiagramHandler(d).Register(mux, sseHub)

	server := &http.Server{
		Addr:        cfg.Listen.Addr,
		Handler:     handler.Chain(mux, handler.Recover, handler.CORS, handler.Logger),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	events := make(chan service.Event, 100)
	bus.Subscribe(events)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sseHub.Run(gctx)
	})
	g.Go(func() error {
		return d.Run(gctx)
	})
	g.Go(func() error {
		surface.Forward(events)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		bus.Unsubscribe(events)
		close(events)
		return nil
	})

	if fixture != nil && cfg.Source.Watch {
		w := watcher.New(fixture.Path(), func() {
			if err := fixture.Reload(); err != nil {
				logging.Warnf("fixture reload failed, keeping previous inventory: %v", err)
				return
			}
			logging.Infof("fixture %s reloaded", fixture.Path())
			if err := d.Refresh(gctx); err != nil {
				logging.Warnf("refresh after reload failed: %v", err)
			}
		})
		g.Go(func() error {
			return w.Watch(gctx)
		})
	}

	if initial := diagram.InitialTenant(cfg); !initial.IsZero() {
		g.Go(func() error {
			if err := d.SelectTenant(gctx, initial); err != nil {
				logging.Warnf("failed to select tenant %s: %v", initial, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logging.Infof("server listening on %s", cfg.Listen.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Infof("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Infof("server stopped")
	return nil
}
