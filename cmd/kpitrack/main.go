/*
main.go - Application entry point

PURPOSE:
  Loads configuration, builds the logger and hands over to the cobra
  command tree in package cli.

EXAMPLES:
  # Serve with the demo dataset and an in-memory cache
  kpitrack serve --db=":memory:" --demo

  # Normalise a weekly entries file
  kpitrack csv convert weekly-entries week.csv --employees team.csv --kpis kpis.csv

  # Push whatever the last run left pending
  kpitrack cache sync --db=./data/kpitrack.db

SEE ALSO:
  - config/config.go: Environment variables
  - cli/serve.go:     Server startup and shutdown
*/
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/cli"
	"github.com/warp/kpi-tracker/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	return cli.NewRootCmd(&cli.App{Config: cfg, Logger: logger}).Execute()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
