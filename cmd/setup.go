package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/engine"
	"github.com/zauns/job-search/internal/freshness"
	"github.com/zauns/job-search/internal/oracle"
	"github.com/zauns/job-search/internal/oracle/gemini"
	"github.com/zauns/job-search/internal/oracle/rediscache"
	"github.com/zauns/job-search/internal/scoring"
	"github.com/zauns/job-search/internal/scrape"
	"github.com/zauns/job-search/internal/secrets"
	"github.com/zauns/job-search/internal/source"
	"github.com/zauns/job-search/internal/store"
	"github.com/zauns/job-search/internal/store/memory"
	"github.com/zauns/job-search/internal/store/postgres"
)

// buildEngine assembles the full pipeline from the config: store, adapters,
// oracle, scorer and freshness policy. The returned cleanup closes pooled
// resources and must run before exit.
func buildEngine(ctx context.Context, config *Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	cleanup := func() {}

	st, closeStore, err := buildStore(ctx, config, logger)
	if err != nil {
		return nil, cleanup, err
	}

	orc, closeOracle, err := buildOracle(ctx, config, logger)
	if err != nil {
		closeStore()
		return nil, cleanup, err
	}

	adapters, err := buildAdapters(config, logger)
	if err != nil {
		closeOracle()
		closeStore()
		return nil, cleanup, err
	}

	maxInFlight := 0
	var timeout time.Duration
	if config.Scrape != nil {
		maxInFlight = config.Scrape.MaxInFlight
		if config.Scrape.Timeout != "" {
			timeout, err = time.ParseDuration(config.Scrape.Timeout)
			if err != nil {
				closeOracle()
				closeStore()
				return nil, cleanup, fmt.Errorf("parse scrape.timeout: %w", err)
			}
		}
	}
	orchestrator := scrape.New(adapters, maxInFlight, timeout, logger)

	var semanticFloor float64
	if config.Scoring != nil {
		semanticFloor = config.Scoring.SemanticFloor
	}
	scorer := scoring.New(orc, semanticFloor, logger)

	var window time.Duration
	var minListings int
	if config.Fresh != nil {
		if config.Fresh.Window != "" {
			window, err = time.ParseDuration(config.Fresh.Window)
			if err != nil {
				closeOracle()
				closeStore()
				return nil, cleanup, fmt.Errorf("parse freshness.window: %w", err)
			}
		}
		minListings = config.Fresh.MinListings
	}
	evaluator := freshness.NewEvaluator(window, minListings)

	eng := engine.New(st, orchestrator, scorer, evaluator, orc, logger)

	if err := registerProfile(ctx, eng, config, logger); err != nil {
		closeOracle()
		closeStore()
		return nil, cleanup, err
	}

	cleanup = func() {
		closeOracle()
		closeStore()
	}
	return eng, cleanup, nil
}

// buildStore picks Postgres when a DSN is configured and falls back to the
// in-memory store otherwise, which only makes sense for one-shot runs.
func buildStore(ctx context.Context, config *Config, logger *zap.Logger) (store.Store, func(), error) {
	noop := func() {}

	if config.Storage == nil || config.Storage.PostgresDSN == "" {
		logger.Warn("no postgres dsn configured, using the in-memory store",
			zap.String("hint", "set storage.postgres-dsn or JOB_SEARCH_POSTGRES_DSN to persist data"))
		return memory.New(), noop, nil
	}

	pool, err := postgres.Connect(ctx, config.Storage.PostgresDSN)
	if err != nil {
		return nil, noop, fmt.Errorf("connecting to postgres: %w", err)
	}

	st, err := postgres.New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, noop, err
	}

	return st, pool.Close, nil
}

// buildOracle builds the Gemini oracle and, when Redis is configured, wraps
// it with the shared similarity cache.
func buildOracle(ctx context.Context, config *Config, logger *zap.Logger) (oracle.Oracle, func(), error) {
	noop := func() {}

	if config.Oracle == nil || config.Oracle.Gemini == nil {
		return nil, noop, fmt.Errorf("oracle.gemini configuration is required (set oracle.gemini.api-key-file or GEMINI_API_KEY_FILE)")
	}
	cfg := config.Oracle.Gemini

	apiKey, err := secrets.Load("gemini api key", cfg.APIKeyFile)
	if err != nil {
		return nil, noop, err
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Model),
	)
	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
	if err != nil {
		return nil, noop, err
	}

	var orc oracle.Oracle = gemini.NewOracle(generator, genLogger)

	if config.Storage == nil || config.Storage.Redis == nil || config.Storage.Redis.Addr == "" {
		return orc, noop, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Storage.Redis.Addr,
		Password: config.Storage.Redis.Password,
		DB:       config.Storage.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, similarity caching disabled", zap.Error(err))
		_ = rdb.Close()
		return orc, noop, nil
	}

	cached := oracle.NewCached(orc, rediscache.New(rdb, 0), logger)
	return cached, func() { _ = rdb.Close() }, nil
}

func buildAdapters(config *Config, logger *zap.Logger) ([]source.Adapter, error) {
	maxRetries := 0
	if config.Scrape != nil {
		maxRetries = config.Scrape.MaxRetries
	}

	wrap := func(a source.Adapter) source.Adapter {
		return source.WithRetry(a, maxRetries, 0, logger)
	}

	var adapters []source.Adapter
	src := config.Sources
	if src == nil {
		return nil, fmt.Errorf("at least one source must be enabled under sources")
	}

	if src.HeadHunter != nil && src.HeadHunter.Enabled {
		userAgent := src.HeadHunter.UserAgent
		if userAgent == "" {
			userAgent = app
		}
		adapters = append(adapters, wrap(source.NewHeadHunter(userAgent, logger)))
	}

	if src.Adzuna != nil && src.Adzuna.Enabled {
		appKey, err := secrets.Load("adzuna app key", src.Adzuna.AppKeyFile)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, wrap(source.NewAdzuna(src.Adzuna.AppID, appKey, src.Adzuna.Country, logger)))
	}

	if src.Remotive != nil && src.Remotive.Enabled {
		adapters = append(adapters, wrap(source.NewRemotive(logger)))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("at least one source must be enabled under sources")
	}
	return adapters, nil
}

// registerProfile loads the resume document and derives the keyword profile
// through the oracle. Commands that never rank matches run fine without one.
func registerProfile(ctx context.Context, eng *engine.Engine, config *Config, logger *zap.Logger) error {
	if config.Profile == nil || config.Profile.ResumeFile == "" {
		logger.Debug("no profile configured, match ranking is unavailable")
		return nil
	}

	document, err := os.ReadFile(config.Profile.ResumeFile)
	if err != nil {
		return fmt.Errorf("reading resume file: %w", err)
	}
	if strings.TrimSpace(string(document)) == "" {
		return fmt.Errorf("resume file %q is empty", config.Profile.ResumeFile)
	}

	id := config.Profile.ID
	if id == "" {
		id = "default"
	}

	_, err = eng.ExtractProfile(ctx, id, string(document))
	return err
}

func profileID(config *Config) string {
	if config.Profile == nil || config.Profile.ID == "" {
		return "default"
	}
	return config.Profile.ID
}
