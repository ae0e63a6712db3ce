package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/kpi-tracker/cache"
	"github.com/warp/kpi-tracker/model"
	"github.com/warp/kpi-tracker/store/sqlite"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the persisted entry cache",
	}

	cmd.AddCommand(
		newCacheStatusCmd(app),
		newCacheSyncCmd(app),
		newCacheResetCmd(app),
	)

	return cmd
}

// withCache opens the database named by --db, rehydrates the cache from it
// and runs fn. The database is closed afterwards.
func withCache(ctx context.Context, app *App, fn func(*cache.Cache) error) error {
	db, err := sqlite.New(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return fn(cache.Open(ctx, db, cache.WithLogger(app.Logger.Named("cache"))))
}

func newCacheStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached and pending entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), app, func(c *cache.Cache) error {
				printStats(cmd, c.Stats())
				return nil
			})
		},
	}
}

func newCacheSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending entries now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), app, func(c *cache.Cache) error {
				pending := c.PendingCount()
				err := c.SyncEntries(cmd.Context())
				if errors.Is(err, model.ErrSyncDeferred) {
					fmt.Fprintf(cmd.OutOrStdout(), "Sync deferred, %d entries still pending\n", c.PendingCount())
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d entries\n", pending-c.PendingCount())
				return nil
			})
		},
	}
}

func newCacheResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every cached entry, including unsynced ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset discards unsynced entries; pass --yes to confirm")
			}
			return withCache(cmd.Context(), app, func(c *cache.Cache) error {
				dropped := c.Stats()
				if err := c.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d entries (%d pending)\n", dropped.Entries, dropped.Pending)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}

func printStats(cmd *cobra.Command, s cache.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "entries:    %d\n", s.Entries)
	fmt.Fprintf(out, "pending:    %d\n", s.Pending)
	fmt.Fprintf(out, "last sync:  %s\n", s.LastSync.Format(time.RFC3339))
}
