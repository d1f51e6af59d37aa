package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	HTTPAddr       string
	Environment    string // development|production
	LogLevel       string
	SentryDSN      string
	MigrationsPath string
}

func Load() (*Config, error) {
	// .env опционален: в проде переменные приходят из окружения
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		Environment:    getenv("ENV", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
