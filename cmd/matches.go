package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/logger"
	"github.com/zauns/job-search/internal/store"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show ranked matches for the configured profile",
	Run: func(cmd *cobra.Command, _ []string) {
		matches(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().IntP("page", "p", 1, "result page (1-indexed)")
	matchesCmd.Flags().Int("page-size", 0, "results per page (default 30)")
	matchesCmd.Flags().String("sort", "score", "sort order: score or recency")
	matchesCmd.Flags().String("work-mode", "", "filter by work mode: onsite, remote or hybrid")
	matchesCmd.Flags().String("seniority", "", "filter by seniority: intern, junior, mid or senior")
	matchesCmd.Flags().StringSlice("tags", nil, "require all of these tags")
	matchesCmd.Flags().String("search", "", "free-text search over title, company, description and tags")
	matchesCmd.Flags().Bool("no-scrape", false, "do not collect first even when stored data is stale")
}

func matches(cmd *cobra.Command) {
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
	if config.Profile == nil || config.Profile.ResumeFile == "" {
		logger.Fatal("a profile is required to rank matches",
			zap.String("hint", "set profile.resume-file in the configuration file"))
	}

	eng, cleanup, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	if noScrape, _ := cmd.Flags().GetBool("no-scrape"); !noScrape {
		report, err := eng.AutoScrapeIfNeeded(ctx, config.Keywords)
		if err != nil {
			logger.Fatal("refreshing stored data", zap.Error(err))
		}
		if report != nil {
			logger.Info("collected before ranking",
				zap.String("status", string(report.Session.Status)),
				zap.Int("saved", report.Saved))
		}
	}

	filters, page, sort, err := matchQuery(cmd)
	if err != nil {
		logger.Fatal("invalid query", zap.Error(err))
	}

	result, err := eng.GetRankedMatches(ctx, profileID(config), filters, sort, page)
	if err != nil {
		logger.Fatal("ranking matches", zap.Error(err))
	}

	if result.Total == 0 {
		logger.Info("no matches found")
		return
	}

	for i, row := range result.Rows {
		fmt.Printf("%3d. [%.2f] %s / %s\n", (result.Page-1)*result.Size+i+1,
			row.Match.Score, row.Listing.Title, row.Listing.Company)
		fmt.Printf("     %s | %s | %s\n", row.Listing.WorkMode, row.Listing.Seniority, row.Listing.SourceURL)
		if len(row.Match.MatchingTerms) > 0 {
			fmt.Printf("     matches: %s\n", strings.Join(row.Match.MatchingTerms, ", "))
		}
		if len(row.Match.MissingTerms) > 0 {
			fmt.Printf("     missing: %s\n", strings.Join(row.Match.MissingTerms, ", "))
		}
	}

	fmt.Printf("\npage %d of %d results", result.Page, result.Total)
	if result.HasNext {
		fmt.Printf(" (use --page %d for more)", result.Page+1)
	}
	fmt.Println()
}

func matchQuery(cmd *cobra.Command) (store.Filters, store.Page, store.Sort, error) {
	var filters store.Filters

	if mode, _ := cmd.Flags().GetString("work-mode"); mode != "" {
		filters.WorkMode = job.ParseWorkMode(mode)
		if filters.WorkMode == job.WorkModeUnspecified {
			return filters, store.Page{}, "", fmt.Errorf("unknown work mode %q", mode)
		}
	}
	if level, _ := cmd.Flags().GetString("seniority"); level != "" {
		filters.Seniority = job.ParseSeniority(level)
		if filters.Seniority == job.SeniorityUnspecified {
			return filters, store.Page{}, "", fmt.Errorf("unknown seniority %q", level)
		}
	}
	filters.Tags, _ = cmd.Flags().GetStringSlice("tags")
	filters.Search, _ = cmd.Flags().GetString("search")

	pageNumber, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	page := store.Page{Number: pageNumber, Size: pageSize}

	sortFlag, _ := cmd.Flags().GetString("sort")
	var sort store.Sort
	switch sortFlag {
	case "", "score":
		sort = store.SortByScore
	case "recency":
		sort = store.SortByRecency
	default:
		return filters, page, "", fmt.Errorf("unknown sort %q", sortFlag)
	}

	return filters, page, sort, nil
}
