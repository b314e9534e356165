// Command scheduler materializes instances for every active plan, either once
// (for cron) or on a fixed interval.
package main

import (
	"alcyxob/workout-planner/internal/app"
	"alcyxob/workout-planner/internal/config"
	"alcyxob/workout-planner/internal/logger"
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	cfg         config.Config
	logg        *logger.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Generate scheduled exercise instances for all active plans",
	Long: `Scheduler tops up every active workout plan to the configured lookahead
horizon. Generation is idempotent, so overlapping runs are safe.

  $ scheduler generate              # one pass, then exit (cron)
  $ scheduler run --interval 30m    # keep generating on an interval`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Database.Driver == config.DriverMemory {
			return fmt.Errorf("the scheduler needs a persistent store, database.driver is %q", cfg.Database.Driver)
		}
		logg, err = logger.New(cfg.Log.Mode)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		application, err = app.New(cmd.Context(), cfg, logg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return nil
	},
}

// cleanup runs after Execute whether or not the command failed; cobra skips
// post-run hooks on error.
func cleanup() {
	if application != nil {
		if err := application.Close(context.Background()); err != nil {
			logg.Error("failed to release resources", "error", err)
		}
	}
	if logg != nil {
		logg.Sync()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
	rootCmd.AddCommand(generateCmd, runCmd)
}
