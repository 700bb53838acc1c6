// mytube — personal YouTube repository bridge.
//
// Exposes a user's own video catalog to a host content-management system via
// an OAuth2 delegated-access flow: an HTTP API (listing, search, login,
// OAuth callback) plus MCP tools over streamable HTTP or stdio.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mytubelab/mytube/internal/engine"
	"github.com/mytubelab/mytube/internal/httpapi"
	"github.com/mytubelab/mytube/internal/repserver"
)

var version = "dev"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine.Init(engine.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		BaseURL:      cfg.BaseURL,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
	})
	engine.InitCache(engine.Cfg.ChannelCacheTTL, 1000, 5*time.Minute)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	auth := engine.NewSessionManager(store)
	repo := engine.NewRepository(cfg.RepoID, engine.RepoConfig{
		PageSize:                   cfg.PageSize,
		SupportsTotalCount:         cfg.SupportsTotalCount,
		SupportsSortAndCursorReuse: cfg.SupportsSortAndCursorReuse,
	}, store, auth, engine.NewYouTubeClient())

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "mytube",
		Version: version,
	}, nil)
	repserver.RegisterTools(mcpServer, repo)

	if cfg.MCPTransport == "stdio" {
		slog.Info("starting mytube on stdio", slog.String("repo", cfg.RepoID))
		if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
			slog.Error("mcp stdio server failed", slog.Any("error", err))
		}
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil))
	mux.Handle("/", httpapi.NewRouter(repo))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		slog.Info("starting mytube",
			slog.String("addr", cfg.ListenAddr),
			slog.String("repo", cfg.RepoID),
			slog.String("store", cfg.StoreBackend),
			slog.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", slog.Any("error", err))
	}
}

// openStore selects the session store backend and, for database-backed
// stores, starts the retention sweep.
func openStore(ctx context.Context, cfg *config) (engine.SessionStore, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return engine.NewMemoryStore(), func() {}, nil

	case "sqlite":
		s, err := engine.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		go cleanupLoop(ctx, cfg.SessionTTL, func(c context.Context) error {
			return s.Cleanup(c, cfg.SessionTTL)
		})
		return s, func() { s.Close() }, nil

	case "postgres":
		s, err := engine.OpenPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		go cleanupLoop(ctx, cfg.SessionTTL, func(c context.Context) error {
			return s.Cleanup(c, cfg.SessionTTL)
		})
		return s, s.Close, nil

	case "redis":
		s, err := engine.OpenRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return nil, nil, errors.New("unknown store_backend: " + cfg.StoreBackend)
}

// cleanupLoop sweeps expired session values once an hour.
func cleanupLoop(ctx context.Context, ttl time.Duration, sweep func(context.Context) error) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sweep(ctx); err != nil {
				slog.Warn("session cleanup", slog.Any("error", err))
			}
		}
	}
}
