package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/simdi-agro/billing-api/internal/analytics"
	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/catalog"
	"github.com/simdi-agro/billing-api/internal/config"
	"github.com/simdi-agro/billing-api/internal/jobs"
	"github.com/simdi-agro/billing-api/internal/lock"
	"github.com/simdi-agro/billing-api/internal/obs"
	"github.com/simdi-agro/billing-api/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient, redisOpts := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Repo:  catalog.NewRepository(pool),
		Cache: catalog.NewCache(redisClient, cfg.AnalyticsCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	billingService, err := billing.NewService(billing.ServiceConfig{
		Repo:   billing.NewRepository(pool),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise billing service")
	}

	analyticsService := &analytics.Service{
		Bills:             billingService,
		Products:          catalogService,
		R:                 redisClient,
		TTL:               cfg.AnalyticsCacheTTL,
		TopProductsLimit:  cfg.TopProductsLimit,
		TopCustomersLimit: cfg.TopCustomersLimit,
		TopDealersLimit:   cfg.TopDealersLimit,
		RevenueMonths:     cfg.RevenueMonths,
		DashboardDays:     cfg.DashboardChartDays,
	}

	reportService := &report.Service{
		Bills:    billingService,
		Renderer: report.NewGotenbergClient(cfg.GotenbergURL),
		R:        redisClient,
		TTL:      cfg.PDFCacheTTL,
	}

	locker := lock.Locker{R: redisClient}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		Logger: logger,
		Prerender: func(ctx context.Context, billID uuid.UUID) error {
			return reportService.Prerender(ctx, billID)
		},
		Warmup: func(ctx context.Context) error {
			ran, err := locker.TryLock(ctx, "stats:warmup:lock", 2*time.Minute, analyticsService.Warmup)
			if !ran && err == nil {
				logger.Debug().Msg("stats warmup already running elsewhere")
			}
			return err
		},
		WarmupCron: envOrDefault("STATS_WARMUP_CRON", "*/15 * * * *"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise worker")
	}

	logger.Info().Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
	logger.Info().Msg("worker stopped")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "billing-worker"

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(pingCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, *redis.Options) {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client, redisOpts
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
