package main

import (
	"fmt"
	"os"
	"time"

	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/cache"
	"motodealer/internal/infrastructure/storage/postgres"
)

// config is read once from the environment at startup.
type config struct {
	Port     string
	Env      string
	LogLevel string

	// DatabaseURL empty means in-memory storage.
	DatabaseURL string
	// RedisAddr empty disables the promotion cache.
	RedisAddr string

	PromotionCacheTTL        time.Duration
	OverlapPolicy            promotion.OverlapPolicy
	ArchiveCompressThreshold int
	QuoteNumberPrefix        string
}

func loadConfig() (config, error) {
	policy, err := promotion.ParseOverlapPolicy(getEnv("PROMOTION_OVERLAP_POLICY", string(promotion.OverlapCardOnly)))
	if err != nil {
		return config{}, fmt.Errorf("PROMOTION_OVERLAP_POLICY: %w", err)
	}

	return config{
		Port:                     getEnv("APP_PORT", "8080"),
		Env:                      getEnv("APP_ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		PromotionCacheTTL:        getEnvDuration("PROMOTION_CACHE_TTL", cache.DefaultTTL),
		OverlapPolicy:            policy,
		ArchiveCompressThreshold: getEnvInt("ARCHIVE_COMPRESS_THRESHOLD", postgres.DefaultCompressThreshold),
		QuoteNumberPrefix:        getEnv("QUOTE_NUMBER_PREFIX", "COT"),
	}, nil
}

func (c config) development() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
