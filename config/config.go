package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server  ServerConfig
	TMDB    TMDBConfig
	Redis   RedisConfig
	Refresh RefreshConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`
}

type TMDBConfig struct {
	APIKey string `envconfig:"TMDB_API_KEY" required:"true"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
}

type RefreshConfig struct {
	// AdminKey guards the manual refresh endpoint. When empty the endpoint
	// rejects every request.
	AdminKey       string        `envconfig:"ADMIN_REFRESH_KEY"`
	CronSpec       string        `envconfig:"REFRESH_CRON" default:"0 3 * * *"`
	LockTTL        time.Duration `envconfig:"REFRESH_LOCK_TTL" default:"10m"`
	TargetDuration time.Duration `envconfig:"REFRESH_TARGET_DURATION" default:"5m"`
	MaxConcurrent  int           `envconfig:"REFRESH_MAX_CONCURRENT" default:"3"`
}

type LogConfig struct {
	// File enables rotating file output in addition to stderr when set.
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"20"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
