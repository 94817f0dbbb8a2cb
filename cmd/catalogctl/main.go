package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glutenvergelijker/backend/config"
	"github.com/glutenvergelijker/backend/internal/app"
	"github.com/glutenvergelijker/backend/internal/infrastructure/logging"
)

// appBuilder returns a loaded application and a func that releases it
type appBuilder func(ctx context.Context) (*app.App, func(), error)

func main() {
	if err := newRootCmd(os.Stdout, buildFromConfig).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, build appBuilder) *cobra.Command {
	var jsonOutput bool

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Query the gluten-free product catalog from the command line",
		Long: `catalogctl loads the catalog the same way the server does (remote feed, local file,
cache or embedded sample) and runs one query against it.

Configuration is read from config.yaml, .env and GLUTENVERGELIJKER_* variables.
Use storage.type=sqlite to keep favorites between runs.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")

	p := &printer{out: out, json: &jsonOutput}
	root.AddCommand(
		newSearchCmd(build, p),
		newStatsCmd(build, p),
		newFavoritesCmd(build, p),
	)
	return root
}

// buildFromConfig loads configuration and logs to stderr so stdout stays machine-readable
func buildFromConfig(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, syncLogs, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     "console",
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Output:     os.Stderr,
	})
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = syncLogs()
		return nil, nil, err
	}

	return a, func() {
		_ = a.Close()
		_ = syncLogs()
	}, nil
}
