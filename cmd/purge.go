package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/logger"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored listings, matches and sessions",
	Run: func(cmd *cobra.Command, _ []string) {
		purge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func purge(cmd *cobra.Command) {
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

	if confirmed, _ := cmd.Flags().GetBool("yes"); !confirmed {
		prompt := promptui.Select{
			Label: "Delete all stored listings, matches and sessions?",
			Items: []string{PromptNo, PromptYes},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if answer != PromptYes {
			logger.Info("exiting", zap.String("reason", "purge not confirmed"))
			return
		}
	}

	st, closeStore, err := buildStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer closeStore()

	if err := st.Purge(ctx); err != nil {
		logger.Fatal("purging stored data", zap.Error(err))
	}

	logger.Info("all stored data deleted")
}
