// Package config reads the startup configuration from the environment.
// Everything is fixed at startup; nothing reloads at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Token          string
	OwnerChannelID int64
	OwnerKey       string
	RateLimit      time.Duration
	MaxWarnings    int
	DataDir        string
	ExtractAPIURL  string
	AdminAddr      string
	FetchTimeout   time.Duration
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		RateLimit:     30 * time.Second,
		MaxWarnings:   3,
		DataDir:       "/data",
		ExtractAPIURL: "https://tikwm.com/api/",
		AdminAddr:     ":3000",
		FetchTimeout:  60 * time.Second,
	}

	cfg.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	cfg.OwnerKey = os.Getenv("OWNER_KEY")
	if cfg.OwnerKey == "" {
		return nil, fmt.Errorf("OWNER_KEY environment variable is not set")
	}

	if v := os.Getenv("OWNER_CHANNEL_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("OWNER_CHANNEL_ID: %w", err)
		}
		cfg.OwnerChannelID = id
	}

	if v := os.Getenv("RATE_LIMIT_SECONDS"); v != "" {
		secs, err := positiveInt(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_SECONDS: %w", err)
		}
		cfg.RateLimit = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("MAX_WARNINGS"); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return nil, fmt.Errorf("MAX_WARNINGS: %w", err)
		}
		cfg.MaxWarnings = n
	}

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		secs, err := positiveInt(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS: %w", err)
		}
		cfg.FetchTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("EXTRACT_API_URL"); v != "" {
		cfg.ExtractAPIURL = v
	}
	if v := os.Getenv("ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}

	return cfg, nil
}

func positiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be a positive integer, got %d", n)
	}
	return n, nil
}
