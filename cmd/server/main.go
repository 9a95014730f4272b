// Package main is the entry point for the dealership pricing API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	corenumerator "motodealer/internal/core/numerator"
	"motodealer/internal/core/tx"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/domain/quote"
	"motodealer/internal/infrastructure/cache"
	v1 "motodealer/internal/infrastructure/http/v1"
	"motodealer/internal/infrastructure/http/v1/handlers"
	"motodealer/internal/infrastructure/numerator"
	"motodealer/internal/infrastructure/storage/memory"
	"motodealer/internal/infrastructure/storage/postgres"
	"motodealer/internal/infrastructure/storage/postgres/promotion_repo"
	"motodealer/internal/infrastructure/storage/postgres/quote_repo"
	"motodealer/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting motodealer server", "env", cfg.Env, "overlap_policy", string(cfg.OverlapPolicy))

	checks := map[string]handlers.Pinger{}

	// --- Storage ---
	var (
		repo      promotion.Repository
		archive   quote.Archive
		sequences corenumerator.Generator
		txm       tx.Manager
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		go logPoolStats(ctx, pool)

		codec, err := postgres.NewPayloadCodec(cfg.ArchiveCompressThreshold)
		if err != nil {
			log.Fatalw("failed to create payload codec", "error", err)
		}

		pgTx := postgres.NewTxManager(pool)
		repo = promotion_repo.New(pgTx)
		archive = quote_repo.NewArchiveRepo(pgTx, codec)
		sequences = numerator.New(pgTx)
		txm = pgTx
		checks["database"] = pool
		log.Info("database connection established")
	} else {
		repo = memory.NewPromotionRepo()
		archive = memory.NewQuoteArchive()
		sequences = memory.NewSequences()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// --- Promotion cache ---
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		promotionCache := cache.NewPromotionCache(repo, client, cfg.PromotionCacheTTL)
		if err := promotionCache.Ping(ctx); err != nil {
			log.Warnw("redis unreachable, cache will fall back to storage", "addr", cfg.RedisAddr, "error", err)
		}
		repo = promotionCache
		checks["redis"] = promotionCache
	}

	// --- Services ---
	engine, err := promotion.NewEligibilityEngine()
	if err != nil {
		log.Fatalw("failed to create eligibility engine", "error", err)
	}
	composer := promotion.NewComposer(cfg.OverlapPolicy)

	quotes := quote.NewService(repo, engine, composer, archive).WithNumbering(quote.Numbering{
		Generator: sequences,
		Config:    corenumerator.DefaultConfig(cfg.QuoteNumberPrefix),
	}, txm)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Promotions:   promotion.NewService(repo, engine, composer),
		Quotes:       quotes,
		HealthChecks: checks,
		Version:      version,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped")
}

func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
