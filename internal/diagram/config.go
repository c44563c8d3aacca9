package diagram

import (
	"fmt"
	"time"

	"topomap/internal/client"
	"topomap/internal/config"
	"topomap/internal/domain"
	"topomap/internal/interaction"
	"topomap/internal/loader"
	"topomap/internal/render"
	"topomap/internal/repository"
	"topomap/internal/repository/file"
	"topomap/internal/repository/sqlite"
	"topomap/internal/service"
)

// OptionsFromConfig derives diagram options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Styles: StylesFromConfig(cfg.Styles),
		Interaction: interaction.Options{
			MinZoom:     cfg.View.MinZoom,
			MaxZoom:     cfg.View.MaxZoom,
			SaveTimeout: 5 * time.Second,
		},
		Coordinator: service.Options{
			Timeout:  cfg.Source.Timeout.Duration(),
			Interval: cfg.Refresh.Interval.Duration(),
		},
		Viewport:     cfg.View.Viewport,
		PositionsKey: cfg.Positions.Key,
	}
}

// StylesFromConfig layers the configured tables over the stock styles
func StylesFromConfig(sc config.StylesConfig) render.Styles {
	over := render.Styles{
		Colors:       sc.Colors,
		Widths:       sc.Widths,
		Icons:        sc.Icons,
		DefaultColor: sc.DefaultColor,
		DefaultWidth: sc.DefaultWidth,
	}
	if sc.LabelOffset != nil {
		over.LabelOffset = *sc.LabelOffset
	}
	styles := render.DefaultStyles().Merge(over)
	if sc.LabelOffset != nil {
		styles.LabelOffset = *sc.LabelOffset
	}
	return styles
}

// OpenSource builds the data source named by the configuration. The
// fixture is returned as well when the source is a fixture so its file
// can be watched.
func OpenSource(cfg *config.Config) (service.DataSource, *loader.Fixture, error) {
	switch cfg.Source.Kind {
	case config.SourceFixture:
		f, err := loader.LoadFixture(cfg.Source.Fixture)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		return f, f, nil
	case config.SourceHTTP:
		c, err := client.New(client.Options{
			BaseURL:    cfg.Source.BaseURL,
			Timeout:    cfg.Source.Timeout.Duration(),
			Token:      cfg.Source.Token,
			CookieName: cfg.Source.Cookie,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create client: %w", err)
		}
		return c, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// OpenPositions opens the durable store for position overrides
func OpenPositions(cfg *config.Config) (repository.KeyValue, error) {
	switch cfg.Positions.Backend {
	case config.BackendSQLite:
		return sqlite.New(cfg.Positions.Path)
	case config.BackendFile:
		return file.New(cfg.Positions.Path)
	default:
		return nil, fmt.Errorf("unknown positions backend %q", cfg.Positions.Backend)
	}
}

// InitialTenant returns the tenant configured for startup, if any
func InitialTenant(cfg *config.Config) domain.ID {
	return domain.ParseID(cfg.View.Tenant)
}
