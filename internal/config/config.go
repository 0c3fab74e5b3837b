package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	MetricsPort     string
	DatabaseURL     string // empty means in-memory device store
	RedisURL        string // empty means in-memory keyed store
	BackupPriceURL  string
	BackupPriceKey  string
	RefreshInterval time.Duration
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		BackupPriceURL:  os.Getenv("BACKUP_PRICE_API_URL"),
		BackupPriceKey:  os.Getenv("BACKUP_PRICE_API_KEY"),
		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_SECONDS", 300)) * time.Second,
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return d
}
