package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// PrerenderFunc renders a bill invoice into the PDF cache.
type PrerenderFunc func(ctx context.Context, billID uuid.UUID) error

// WarmupFunc recomputes the analytics caches.
type WarmupFunc func(ctx context.Context) error

// Worker wraps the asynq server and optional cron scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    zerolog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      zerolog.Logger
	Concurrency int
	Prerender   PrerenderFunc
	Warmup      WarmupFunc
	// WarmupCron schedules periodic stats warmup; empty disables it.
	WarmupCron string
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskInvoicePrerender, handleInvoicePrerender(cfg.Prerender, cfg.Logger))
	mux.HandleFunc(TaskStatsWarmup, handleStatsWarmup(cfg.Warmup, cfg.Logger))

	var scheduler *asynq.Scheduler
	if cfg.WarmupCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.WarmupCron, NewStatsWarmupTask(), asynq.Queue(QueueDefault)); err != nil {
			return nil, err
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

func handleInvoicePrerender(prerender PrerenderFunc, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InvoicePrerenderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if prerender == nil {
			return errors.New("invoice prerender: renderer not configured")
		}
		if err := prerender(ctx, payload.BillID); err != nil {
			logger.Warn().Err(err).Str("bill_id", payload.BillID.String()).Msg("invoice prerender failed")
			return err
		}
		logger.Debug().Str("bill_id", payload.BillID.String()).Msg("invoice prerendered")
		return nil
	}
}

func handleStatsWarmup(warmup WarmupFunc, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if warmup == nil {
			return errors.New("stats warmup: handler not configured")
		}
		start := time.Now()
		if err := warmup(ctx); err != nil {
			logger.Warn().Err(err).Msg("stats warmup failed")
			return err
		}
		logger.Info().Dur("took", time.Since(start)).Msg("stats warmup complete")
		return nil
	}
}
