package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/engine"
	"github.com/zauns/job-search/internal/logger"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one collection cycle now",
	Run: func(cmd *cobra.Command, _ []string) {
		scrapeOnce(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringSliceP("keywords", "k", nil, "restrict the cycle to these keywords (default is a full cycle)")
	scrapeCmd.Flags().Bool("force", false, "collect even when stored data is fresh")
}

func scrapeOnce(cmd *cobra.Command) {
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

	eng, cleanup, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	if len(keywords) == 0 {
		keywords = config.Keywords
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		report, err := eng.AutoScrapeIfNeeded(ctx, keywords)
		if err != nil {
			logger.Fatal("collection failed", zap.Error(err))
		}
		if report == nil {
			logger.Info("stored data is fresh, skipping", zap.String("hint", "use --force to collect anyway"))
			return
		}
		logCycle(logger, report)
		return
	}

	report, err := eng.RunScrapeCycle(ctx, keywords)
	if err != nil {
		logger.Fatal("collection failed", zap.Error(err))
	}
	logCycle(logger, &report)
}

func logCycle(logger *zap.Logger, report *engine.CycleReport) {
	fields := []zap.Field{
		zap.String("session", report.Session.ID.String()),
		zap.String("status", string(report.Session.Status)),
		zap.Int("saved", report.Saved),
		zap.Int("dropped", report.Dropped),
		zap.Int("collapsed", report.Collapsed),
	}
	for _, outcome := range report.Session.Sources {
		if outcome.Error != "" {
			logger.Warn("source failed",
				zap.String("source", outcome.Source),
				zap.String("error", outcome.Error))
			continue
		}
		logger.Info("source succeeded",
			zap.String("source", outcome.Source),
			zap.Int("found", outcome.Found),
			zap.Int("saved", outcome.Saved))
	}
	logger.Info("collection cycle finished", fields...)
}
