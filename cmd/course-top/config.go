package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/course-top/pkg/client"
	"github.com/Sternrassler/course-top/pkg/logging"
	"github.com/Sternrassler/course-top/pkg/pagination"
)

// config is the runtime configuration read from the environment.
type config struct {
	CatalogURL             string
	UserAgent              string
	Workers                int
	HTTPTimeout            time.Duration
	MaxConsecutiveFailures int
	LogLevel               logging.LogLevel
	LogPretty              bool
	MetricsAddr            string
	RedisURL               string
	Progress               bool
}

// loadConfig reads the configuration through env, which behaves like os.Getenv.
func loadConfig(env func(string) string) (config, error) {
	defaults := pagination.DefaultConfig()

	cfg := config{
		CatalogURL:  getEnv(env, "CATALOG_URL", client.DefaultBaseURL),
		UserAgent:   getEnv(env, "USER_AGENT", "course-top/0.1.0"),
		LogLevel:    logging.LogLevel(getEnv(env, "LOG_LEVEL", string(logging.LevelWarn))),
		MetricsAddr: env("METRICS_ADDR"),
		RedisURL:    env("REDIS_URL"),
	}

	var err error
	if cfg.Workers, err = getEnvInt(env, "WORKERS", defaults.Workers); err != nil {
		return config{}, err
	}
	if cfg.Workers <= 0 {
		return config{}, fmt.Errorf("WORKERS must be positive (got %d)", cfg.Workers)
	}

	if cfg.HTTPTimeout, err = getEnvDuration(env, "HTTP_TIMEOUT", 10*time.Second); err != nil {
		return config{}, err
	}
	if cfg.HTTPTimeout <= 0 {
		return config{}, fmt.Errorf("HTTP_TIMEOUT must be positive (got %s)", cfg.HTTPTimeout)
	}

	if cfg.MaxConsecutiveFailures, err = getEnvInt(env, "MAX_CONSECUTIVE_FAILURES", defaults.MaxConsecutiveFailures); err != nil {
		return config{}, err
	}
	if cfg.LogPretty, err = getEnvBool(env, "LOG_PRETTY", false); err != nil {
		return config{}, err
	}
	if cfg.Progress, err = getEnvBool(env, "PROGRESS", true); err != nil {
		return config{}, err
	}

	return cfg, nil
}

// clientConfig derives the catalog client configuration.
func (c config) clientConfig() client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.CatalogURL
	cfg.ConnectTimeout = c.HTTPTimeout
	cfg.ReadTimeout = c.HTTPTimeout
	cfg.WriteTimeout = c.HTTPTimeout
	cfg.MaxIdleConnsPerHost = c.Workers
	return cfg
}

// poolConfig derives the worker pool configuration.
func (c config) poolConfig() pagination.Config {
	return pagination.Config{
		Workers:                c.Workers,
		Timeout:                3 * c.HTTPTimeout,
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
	}
}

func getEnv(env func(string) string, key, defaultValue string) string {
	if value := env(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(env func(string) string, key string, defaultValue int) (int, error) {
	value := env(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(env func(string) string, key string, defaultValue time.Duration) (time.Duration, error) {
	value := env(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(env func(string) string, key string, defaultValue bool) (bool, error) {
	value := env(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
