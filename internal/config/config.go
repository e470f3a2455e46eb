package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	// StorageDeposit is the flat deposit (in fund units) held on every
	// subscription record and refunded when the record is removed.
	StorageDeposit uint64
	// AllowancePeriods bounds each subscription's standing delegation to
	// this many periods' worth of its charge amount.
	AllowancePeriods uint64
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceName:    getEnv("SERVICE_NAME", "payments-api"),
	}

	var err error
	if cfg.StorageDeposit, err = getEnvUint("STORAGE_DEPOSIT", 0); err != nil {
		return nil, err
	}
	if cfg.AllowancePeriods, err = getEnvUint("ALLOWANCE_PERIODS", 1); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that everything the daemon needs to start is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AllowancePeriods == 0 {
		return fmt.Errorf("ALLOWANCE_PERIODS must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
