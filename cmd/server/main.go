package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/owlet-learn/owlet/internal/ai"
	"github.com/owlet-learn/owlet/internal/auth"
	"github.com/owlet-learn/owlet/internal/catalog"
	"github.com/owlet-learn/owlet/internal/content"
	"github.com/owlet-learn/owlet/internal/gamification"
	"github.com/owlet-learn/owlet/internal/learning"
	"github.com/owlet-learn/owlet/internal/platform/cache"
	"github.com/owlet-learn/owlet/internal/platform/config"
	"github.com/owlet-learn/owlet/internal/platform/database"
	"github.com/owlet-learn/owlet/internal/profile"
	"github.com/owlet-learn/owlet/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server, cleanup, err := buildServer(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // generation can be slow on cold chapters
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// buildServer assembles stores, providers and services. With no database
// URL everything runs in memory; with no cache URL locks and sessions stay
// in process.
func buildServer(ctx context.Context, cfg *config.Config) (*Server, func(), error) {
	var (
		contents  content.Store
		profiles  profile.Store
		progresss progress.Store
		rewards   gamification.Store
		accounts  auth.Store
		sessions  auth.Sessions
		cleanups  []func()
		readies   []func(ctx context.Context) error
	)

	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		cleanups = append(cleanups, db.Close)
		readies = append(readies, db.HealthCheck)

		if err := db.Migrate(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("migrating database: %w", err)
		}

		if contents, err = content.NewPostgresStore(db.Pool); err != nil {
			return nil, cleanup, err
		}
		if profiles, err = profile.NewPostgresStore(db.Pool); err != nil {
			return nil, cleanup, err
		}
		if progresss, err = progress.NewPostgresStore(db.Pool); err != nil {
			return nil, cleanup, err
		}
		if rewards, err = gamification.NewPostgresStore(db.Pool); err != nil {
			return nil, cleanup, err
		}
		if accounts, err = auth.NewPostgresStore(db.Pool); err != nil {
			return nil, cleanup, err
		}
		slog.Info("using postgres stores")
	} else {
		memProfiles := profile.NewMemoryStore()
		contents = content.NewMemoryStore()
		profiles = memProfiles
		progresss = progress.NewMemoryStore(memProfiles)
		rewards = gamification.NewMemoryStore(memProfiles)
		accounts = auth.NewMemoryStore()
		slog.Info("using in-memory stores")
	}

	var locker content.Locker
	if cfg.Cache.URL != "" {
		redisCache, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to cache: %w", err)
		}
		cleanups = append(cleanups, func() { _ = redisCache.Close() })
		readies = append(readies, redisCache.HealthCheck)

		locker = redisCache.NewLocker()
		sessions = auth.NewRedisSessions(redisCache.Client)
		slog.Info("using redis for sessions and generation locks")
	} else {
		sessions = auth.NewMemorySessions()
	}

	orch := buildOrchestrator(cfg.AI)

	cacheOpts := []content.CacheOption{}
	if locker != nil {
		cacheOpts = append(cacheOpts, content.WithLocker(locker))
	}
	contentCache := content.NewCache(contents, orch, cacheOpts...)

	if cfg.CatalogPath != "" {
		if err := seedCatalog(ctx, cfg.CatalogPath, contents, rewards); err != nil {
			return nil, cleanup, err
		}
	}

	learn := learning.NewService(learning.Config{
		Contents:     contents,
		Cache:        contentCache,
		Profiles:     profiles,
		Progress:     progresss,
		Rewards:      rewards,
		Orchestrator: orch,
	})
	authSvc := auth.NewService(accounts, sessions)

	ready := func(ctx context.Context) error {
		for _, check := range readies {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return NewServer(learn, authSvc, ready), cleanup, nil
}

// buildOrchestrator registers configured providers in preference order.
// With none configured the stub handles everything.
func buildOrchestrator(cfg config.AIConfig) *ai.Orchestrator {
	orch := ai.NewOrchestrator()

	register := func(name string) {
		switch name {
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				return
			}
			opts := []ai.OpenAIOption{}
			if cfg.OpenAI.Model != "" {
				opts = append(opts, ai.WithModel(cfg.OpenAI.Model))
			}
			orch.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
			slog.Info("AI provider registered", "provider", "openai")
		case "google":
			if cfg.Google.APIKey == "" {
				return
			}
			opts := []ai.GoogleOption{}
			if cfg.Google.Model != "" {
				opts = append(opts, ai.WithGoogleModel(cfg.Google.Model))
			}
			orch.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey, opts...))
			slog.Info("AI provider registered", "provider", "google")
		}
	}

	// The preferred provider registers first so it ranks highest.
	if cfg.Preferred != "" {
		register(cfg.Preferred)
	}
	for _, name := range []string{"openai", "google"} {
		if name != cfg.Preferred {
			register(name)
		}
	}

	if !orch.HasLiveProvider() {
		slog.Warn("no AI provider configured, generation falls back to stub content")
	}
	return orch
}

func seedCatalog(ctx context.Context, path string, contents content.Store, rewards gamification.Store) error {
	c, err := catalog.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("catalog file missing, skipping seed", "path", path)
			return nil
		}
		return fmt.Errorf("loading catalog: %w", err)
	}
	if err := catalog.NewSeeder(contents, rewards).Seed(ctx, c); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	return nil
}
