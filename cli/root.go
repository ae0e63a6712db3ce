package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/config"
)

// App holds what every command needs. Flags write into Config before a
// command runs.
type App struct {
	Config config.Config
	Logger *zap.Logger
}

// NewRootCmd creates the top-level "kpitrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Logger == nil {
		app.Logger = zap.NewNop()
	}
	root := &cobra.Command{
		Use:           "kpitrack",
		Short:         "KPI tracker server and data tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.Config.DBPath, "db", app.Config.DBPath, `SQLite file for the entry cache (":memory:" for none)`)

	root.AddCommand(
		newServeCmd(app),
		newCSVCmd(app),
		newCacheCmd(app),
	)

	return root
}
