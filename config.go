package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// config is the full service configuration: a TOML file (MYTUBE_CONFIG,
// default mytube.toml if present) with environment-variable overrides.
type config struct {
	ListenAddr string `toml:"listen_addr"`
	BaseURL    string `toml:"base_url"`
	LogLevel   string `toml:"log_level"`

	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	RepoID                     string `toml:"repo_id"`
	PageSize                   int    `toml:"page_size"`
	SupportsTotalCount         bool   `toml:"supports_total_count"`
	SupportsSortAndCursorReuse bool   `toml:"supports_sort_cursor_reuse"`

	// Store backend: memory (default), sqlite, postgres, redis.
	StoreBackend string        `toml:"store_backend"`
	SQLitePath   string        `toml:"sqlite_path"`
	PostgresURL  string        `toml:"postgres_url"`
	RedisURL     string        `toml:"redis_url"`
	SessionTTL   time.Duration `toml:"-"`
	SessionTTLs  string        `toml:"session_ttl"`

	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`

	MCPTransport string `toml:"mcp_transport"`
}

func loadConfig() (*config, error) {
	cfg := &config{
		ListenAddr:                 ":8089",
		BaseURL:                    "http://localhost:8089",
		LogLevel:                   "info",
		RepoID:                     "personalyoutube",
		PageSize:                   27,
		SupportsTotalCount:         true,
		SupportsSortAndCursorReuse: true,
		StoreBackend:               "memory",
		SQLitePath:                 "data/sessions.db",
		SessionTTL:                 24 * time.Hour,
		RateLimit:                  8,
		RateBurst:                  4,
	}

	path := env("MYTUBE_CONFIG", "mytube.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if cfg.SessionTTLs != "" {
		d, err := time.ParseDuration(cfg.SessionTTLs)
		if err != nil {
			return nil, fmt.Errorf("parse session_ttl: %w", err)
		}
		cfg.SessionTTL = d
	}

	// Environment overrides, secrets in particular.
	cfg.ListenAddr = env("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BaseURL = env("BASE_URL", cfg.BaseURL)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.ClientID = env("OAUTH_CLIENT_ID", cfg.ClientID)
	cfg.ClientSecret = env("OAUTH_CLIENT_SECRET", cfg.ClientSecret)
	cfg.RepoID = env("REPO_ID", cfg.RepoID)
	cfg.PageSize = envInt("PAGE_SIZE", cfg.PageSize)
	cfg.StoreBackend = env("STORE_BACKEND", cfg.StoreBackend)
	cfg.SQLitePath = env("SQLITE_PATH", cfg.SQLitePath)
	cfg.PostgresURL = env("POSTGRES_URL", cfg.PostgresURL)
	cfg.RedisURL = env("REDIS_URL", cfg.RedisURL)
	cfg.MCPTransport = env("MCP_TRANSPORT", cfg.MCPTransport)

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required")
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
