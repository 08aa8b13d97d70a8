package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/config"
	"github.com/noah-isme/taxcore/internal/money"
	"github.com/noah-isme/taxcore/internal/obs"
	"github.com/noah-isme/taxcore/internal/queue"
	"github.com/noah-isme/taxcore/internal/rules"
	"github.com/noah-isme/taxcore/internal/tax"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "taxcore")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, redisOpts := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	rulesCache := rules.NewCache(redisClient, cfg.RulesCachePrefix, cfg.RulesCacheTTL)
	snapshot, err := loadSnapshot(ctx, cfg, rulesCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load rule snapshot")
	}

	mode, err := money.ParseMode(cfg.RoundingMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse rounding mode")
	}
	source, err := tax.NewSource(tax.Builder{
		Types:            cfg.EnabledTaxTypes,
		VATZoneIDs:       cfg.VATZoneIDs,
		SalesTaxZoneIDs:  cfg.SalesTaxZoneIDs,
		Rounding:         mode,
		DisplayInclusive: cfg.DisplayInclusive,
		Logger:           logger,
	}, snapshot, rulesCache)
	if err != nil {
		logger.Fatal().Err(err).Msg("build tax registry")
	}
	logger.Info().Strs("tax_types", cfg.EnabledTaxTypes).Msg("tax registry ready")

	results := queue.NewResultStore(redisClient, "", cfg.BatchResultTTL)
	worker := queue.NewWorker(source, results, logger)

	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}, asynq.Config{
		Concurrency: cfg.QueueConcurrency,
	})

	mux := asynq.NewServeMux()
	worker.Register(mux)

	logger.Info().Int("concurrency", cfg.QueueConcurrency).Msg("worker starting")
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()
	if err := srv.Run(mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

// loadSnapshot prefers the file on disk, falling back to the cached copy in
// redis so the worker survives a missing local rules file.
func loadSnapshot(ctx context.Context, cfg *config.Config, cache *rules.Cache, logger zerolog.Logger) (*rules.Snapshot, error) {
	snapshot, err := rules.LoadFile(cfg.RulesPath)
	if err == nil {
		return snapshot, nil
	}
	logger.Warn().Err(err).Str("path", cfg.RulesPath).Msg("load rules file, trying cache")

	cached, found, cacheErr := cache.Get(ctx, rules.LatestVersion)
	if cacheErr != nil {
		return nil, cacheErr
	}
	if !found {
		return nil, err
	}
	return cached, nil
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, *redis.Options) {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient, redisOpts
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
