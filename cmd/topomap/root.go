package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"topomap/internal/config"
	"topomap/internal/logging"
)

var (
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	subtle = color.New(color.FgHiBlack)
)

// options carries the persistent flags and the loaded configuration
type options struct {
	configPath string
	logLevel   string

	cfg  *config.Config
	path string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "topomap",
		Short: "Interactive network topology diagram for ISP tenants",
		Long: `topomap draws the equipment and links of one tenant as an interactive
diagram, keeps manual node positions across refreshes and relays port
connection commands to the inventory backend.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	cmd.SetVersionTemplate(`{{printf "topomap version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: $TOPOMAP_CONFIG, ./topomap.yaml or ~/.config/topomap/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level: debug, info, warn or error (overrides config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSceneCmd(opts),
		newPositionsCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// load reads the configuration and starts logging. Quiet commands print
// their result on stdout, so they only log warnings unless asked for more.
func (o *options) load(quiet bool) error {
	cfg, path, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if quiet {
		level = "warn"
	}
	if o.logLevel != "" {
		level = o.logLevel
	}
	if err := logging.Init(logging.Options{
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}

	if path != "" {
		logging.Infof("loaded config from %s", path)
	} else {
		logging.Debugf("no config file found, using defaults")
	}
	o.cfg = cfg
	o.path = path
	return nil
}
