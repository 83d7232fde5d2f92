package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/logger"
)

const defaultSchedule = "@every 6h"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the collection daemon: scrape on a schedule whenever stored data goes stale",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("schedule", "s", "", "cron schedule for freshness checks (default is @every 6h)")
	viper.BindPFlag("schedule", runCmd.Flags().Lookup("schedule"))
}

// run is the daemon command: it checks freshness on the configured schedule
// and triggers a collection cycle when the stored data is stale.
func run(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the job-search daemon", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	eng, cleanup, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	schedule := config.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	check := func() {
		report, err := eng.AutoScrapeIfNeeded(ctx, config.Keywords)
		if err != nil {
			logger.Error("scheduled collection failed", zap.Error(err))
			return
		}
		if report == nil {
			logger.Info("stored data is fresh, nothing to do")
			return
		}
		logger.Info("scheduled collection finished",
			zap.String("session", report.Session.ID.String()),
			zap.String("status", string(report.Session.Status)),
			zap.Int("saved", report.Saved))
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, check); err != nil {
		logger.Fatal("invalid schedule", zap.String("schedule", schedule), zap.Error(err))
	}

	// First check runs immediately so a cold start does not wait a full tick.
	check()

	scheduler.Start()
	logger.Info("scheduler started", zap.String("schedule", schedule))

	<-ctx.Done()
	logger.Info("shutting down")
	<-scheduler.Stop().Done()
}
