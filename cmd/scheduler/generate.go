package main

import (
	"alcyxob/workout-planner/internal/service"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	interval   time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Services.Scheduler.GenerateForAllActivePlans(cmd.Context())
		if err != nil {
			return err
		}
		if err := printReport(cmd, report); err != nil {
			return err
		}
		if len(report.Failures) > 0 {
			return fmt.Errorf("%d of %d plans failed", len(report.Failures), report.PlansChecked)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		every := interval
		if every <= 0 {
			every = cfg.Schedule.Interval
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		logg.Info("scheduler loop started", "interval", every.String())

		for {
			runOnce(ctx, application.Services.Scheduler)
			select {
			case <-ctx.Done():
				logg.Info("scheduler loop stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	runCmd.Flags().DurationVar(&interval, "interval", 0, "time between passes (default schedule.interval)")
}

// runOnce logs instead of failing so one bad pass does not stop the loop.
func runOnce(ctx context.Context, scheduler service.GenerationScheduler) {
	report, err := scheduler.GenerateForAllActivePlans(ctx)
	if err != nil {
		logg.Error("generation pass failed", "error", err)
		return
	}
	for _, f := range report.Failures {
		logg.Warn("plan generation failed", "owner_id", f.OwnerID.Hex(), "plan_id", f.PlanID.Hex(), "error", f.Error)
	}
}

func printReport(cmd *cobra.Command, report *service.GenerationReport) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(out, "checked %d plans, generated %d, up to date %d, created %d instances in %s\n",
		report.PlansChecked, report.PlansGenerated, report.PlansUpToDate, report.InstancesCreated,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  failed owner=%s plan=%s created=%d: %s\n", f.OwnerID.Hex(), f.PlanID.Hex(), f.CreatedCount, f.Error)
	}
	return nil
}
