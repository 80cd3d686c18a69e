package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rotzhost/rotzcoder/internal/analytics"
	"github.com/rotzhost/rotzcoder/internal/config"
	"github.com/rotzhost/rotzcoder/internal/database"
	"github.com/rotzhost/rotzcoder/internal/queue"
	"github.com/rotzhost/rotzcoder/internal/queue/workers"
	"github.com/rotzhost/rotzcoder/internal/user"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.NewPool(ctx, cfg.Database)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	maint := workers.NewMaintenanceWorker(
		user.NewStore(db),
		analytics.NewCollector(db),
		cfg.Analytics.RetentionDays,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeSessionsPurge, maint.PurgeSessions)
	mux.HandleFunc(queue.TypeAnalyticsRollup, maint.RollupUsage)
	mux.HandleFunc(queue.TypeAnalyticsPrune, maint.PruneEvents)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	register := func(spec string, task *asynq.Task, opts ...asynq.Option) {
		if _, err := scheduler.Register(spec, task, opts...); err != nil {
			slog.Error("failed to register scheduled task", "task", task.Type(), "error", err)
			os.Exit(1)
		}
	}
	register("@hourly", queue.NewSessionsPurgeTask(), asynq.Queue("low"))
	register("@daily", queue.NewPruneTask(), asynq.Queue("low"))

	rollup, err := queue.NewRollupTask(queue.RollupPayload{})
	if err != nil {
		slog.Error("failed to build rollup task", "error", err)
		os.Exit(1)
	}
	register("@hourly", rollup, asynq.Queue("default"))

	// Kick the maintenance tasks once at boot so a redeploy does not
	// leave stale sessions or a missing rollup until the next cron tick.
	client := queue.NewClient(cfg.Redis)
	defer client.Close()
	if err := client.EnqueueSessionsPurge(); err != nil {
		slog.Warn("boot session purge enqueue", "error", err)
	}
	if err := client.EnqueueRollup(queue.RollupPayload{}); err != nil {
		slog.Warn("boot rollup enqueue", "error", err)
	}

	if err := scheduler.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	slog.Info("starting worker", "concurrency", 10, "retention_days", cfg.Analytics.RetentionDays)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
