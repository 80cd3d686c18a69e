package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rotzhost/rotzcoder/internal/api"
	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/config"
	"github.com/rotzhost/rotzcoder/internal/database"
	"github.com/rotzhost/rotzcoder/internal/llm"
	"github.com/rotzhost/rotzcoder/internal/routing"
	"github.com/rotzhost/rotzcoder/internal/secretbox"
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
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it logins are not throttled and the
	// dashboard queries hit Postgres every time.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		rdb.Close()
		rdb = nil
	} else {
		defer rdb.Close()
	}

	box, err := loadBox(cfg.Crypto.EncryptionKey)
	if err != nil {
		slog.Error("invalid encryption key", "error", err)
		os.Exit(1)
	}

	if err := bootstrap(ctx, db, cfg); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(db, rdb, cfg, box)
	handler := router.Setup()

	// WriteTimeout has to outlast the 120s provider call budget, or the
	// synchronous completion endpoint gets cut off mid-response.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// loadBox builds the AEAD box protecting stored API keys. Without a
// configured key a random one is generated, which keeps development
// easy but makes previously stored keys unreadable after a restart.
func loadBox(encoded string) (*secretbox.Box, error) {
	if encoded == "" {
		slog.Warn("ENCRYPTION_KEY not set, generated an ephemeral key; stored API keys will not survive a restart")
		return secretbox.New(secretbox.NewRandomKey())
	}
	key, err := secretbox.ParseKey(encoded)
	if err != nil {
		return nil, err
	}
	return secretbox.New(key)
}

// bootstrap seeds the database state the app expects: the super admin
// account and the default model routes. Both are idempotent.
func bootstrap(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	admin := user.NewAdminService(user.NewStore(db),
		auth.NewHasher(cfg.Auth.BcryptCost), cfg.Auth.SuperAdminEmail)
	if err := admin.EnsureSuperAdmin(ctx, cfg.Auth.SuperAdminPassword); err != nil {
		return err
	}
	return routing.NewService(db, llm.DefaultRegistry()).SeedDefaults(ctx)
}
