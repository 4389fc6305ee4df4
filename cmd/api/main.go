package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/zerocrm/recordstore/internal/adapter/api"
	"github.com/zerocrm/recordstore/internal/adapter/api/middleware"
	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/adapter/repository/memstore"
	"github.com/zerocrm/recordstore/internal/adapter/repository/postgres"
	redisrepo "github.com/zerocrm/recordstore/internal/adapter/repository/redis"
	"github.com/zerocrm/recordstore/internal/domain"
	"github.com/zerocrm/recordstore/internal/pkg/config"
	"github.com/zerocrm/recordstore/internal/pkg/logger"
	"github.com/zerocrm/recordstore/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.New()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.New()

	// --- Initialize Stores ---
	var (
		store domain.Store
		ids   domain.IdentityStore
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to open postgres connection", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to postgres")

		store = postgres.NewStore(db, logger)
		ids = postgres.NewIdentity(db, clk, logger)
	case config.DriverMemory:
		logger.Info("using in-memory store, data will not survive a restart")
		store = memstore.NewStore()
		ids = memstore.NewIdentity(clk)
	}

	// --- Optional Key Resolution Cache ---
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The cache degrades to pass-through while Redis is down, so a
			// failed ping at boot is not fatal.
			logger.Warn("could not connect to redis, key cache degraded", "error", err)
		} else {
			logger.Info("connected to redis")
		}
		ids = redisrepo.NewKeyCache(ids, redisClient, cfg.KeyCacheTTL, logger, m)
	}

	// --- Initialize Use Cases and Services ---
	policy, err := usecase.ParseDeletePolicy(cfg.DeletePolicy)
	if err != nil {
		logger.Error("invalid delete policy", "error", err)
		os.Exit(1)
	}
	integrity := usecase.NewIntegrity(policy, clk)
	resources := usecase.NewResourceService(store, integrity, clk, logger)
	ingestor := usecase.NewBulkIngestor(store, integrity, clk, logger)
	identity := usecase.NewIdentityService(ids, logger)

	// --- Initialize API Server ---
	router := api.NewRouter(cfg, logger, m, ids, resources, ingestor, identity)
	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      middleware.Logging(logger, m)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr, "store_driver", cfg.StoreDriver, "delete_policy", cfg.DeletePolicy)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
