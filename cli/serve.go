/*
serve.go - The HTTP server command

STARTUP SEQUENCE:
  1. Validate configuration (env, .env, flags)
  2. Open the SQLite blob store and rehydrate the entry cache from it
  3. Build the in-memory stores and the tracker facade
  4. Optionally load the demo dataset
  5. Start the periodic cache sync
  6. Serve the API until SIGINT/SIGTERM

GRACEFUL SHUTDOWN:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sync scheduler
  4. Close the database
*/
package cli

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
	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/api"
	"github.com/warp/kpi-tracker/cache"
	"github.com/warp/kpi-tracker/store/memory"
	"github.com/warp/kpi-tracker/store/sqlite"
	"github.com/warp/kpi-tracker/tracker"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}

	cmd.Flags().StringVar(&app.Config.Addr, "addr", app.Config.Addr, "Listen address")
	cmd.Flags().BoolVar(&app.Config.Demo, "demo", app.Config.Demo, "Load the demo dataset on start")
	cmd.Flags().DurationVar(&app.Config.SyncInterval, "sync-interval", app.Config.SyncInterval, "Cache sync period (0 disables)")

	return cmd
}

func serve(ctx context.Context, app *App) error {
	logger := app.Logger
	cfg := app.Config

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	entryCache := cache.Open(ctx, db, cache.WithLogger(logger.Named("cache")))
	entryCache.Initialize()

	t := tracker.New(memory.NewEmployees(), memory.NewKPIs(), memory.NewWeeklyEntries(), entryCache,
		tracker.WithLogger(logger.Named("tracker")))

	if cfg.Demo {
		if _, err := t.LoadDemo(ctx); err != nil {
			return fmt.Errorf("load demo data: %w", err)
		}
	}

	scheduler := cache.NewScheduler(entryCache, cfg.SyncInterval, logger.Named("sync"))
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(t, logger.Named("api"))
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("db", cfg.DBPath),
			zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
