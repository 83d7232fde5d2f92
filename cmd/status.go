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

	"github.com/zauns/job-search/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether stored data is fresh for the configured keywords",
	Run: func(cmd *cobra.Command, _ []string) {
		status(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status(_ *cobra.Command) {
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

	report, err := eng.FreshnessStatus(ctx, config.Keywords)
	if err != nil {
		logger.Fatal("evaluating freshness", zap.Error(err))
	}

	fields := []zap.Field{
		zap.Bool("stale", report.Decision.Stale),
		zap.String("reason", report.Decision.Reason),
		zap.Int("listings", report.ListingCount),
	}
	if report.Decision.Targeted {
		fields = append(fields, zap.Strings("stale_keywords", report.Decision.Keywords))
	}
	if report.LastSession != nil {
		fields = append(fields,
			zap.Time("last_collection", report.LastSession.FinishedAt),
			zap.String("last_status", string(report.LastSession.Status)))
	}

	logger.Info("freshness status", fields...)
}
