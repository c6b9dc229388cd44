package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/cli"
	"marlizintel.com/intel/internal/config"
	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/ingest"
	"marlizintel.com/intel/internal/logging"
	"marlizintel.com/intel/internal/simplifier"
)

// bootstrap loads env, config, logger and the database pool in the order
// every command needs them. The returned cleanup closes the pool.
func bootstrap(envLoader *cli.EnvLoader, connectTimeout time.Duration) (*config.Config, zerolog.Logger, *db.Pool, func(), int) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Nop(), nil, nil, 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Nop(), nil, nil, 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), connectTimeout)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return nil, zerolog.Nop(), nil, nil, 1
	}

	cleanup := func() {
		_ = pool.Close()
	}
	return cfg, logger, pool, cleanup, 0
}

func buildIngestService(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) *ingest.Service {
	var api *ingest.APIClient
	if cfg.NewsAPIKey != "" {
		api = ingest.NewAPIClient(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, nil)
	}

	return ingest.NewService(pool, logger, api, ingest.Options{
		Keywords: cfg.NewsKeywordList(),
		FeedURLs: cfg.NewsRSSFeedList(),
		Filter: ingest.FilterConfig{
			MinTitleLength:  cfg.MinTitleLength,
			MinContentChars: cfg.MinContentChars,
		},
		FetchFullText: true,
	})
}

func buildSimplifierService(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) *simplifier.Service {
	model := simplifier.NewClient(simplifier.ClientOptions{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AIRequestTimeout,
	})

	return simplifier.NewService(pool, logger, model, simplifier.Options{
		BatchLimit:   cfg.AIBatchLimit,
		PauseBetween: cfg.AIPauseBetween,
	})
}
