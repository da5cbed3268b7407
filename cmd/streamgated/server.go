package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"streamgate/internal/api"
	"streamgate/internal/catalog"
	"streamgate/internal/config"
	"streamgate/internal/extractor"
	"streamgate/internal/metrics"
	"streamgate/internal/rescache"
	"streamgate/internal/resolver"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadSite reads one site's persisted document and swaps it into the arena.
func loadSite(arena *catalog.Arena, site config.SiteConfig) error {
	cat, err := catalog.Load(site.DataFile, catalog.LoadOptions{
		Tag:             site.Tag,
		LanguageAliases: site.LanguageKeys,
	})
	if err != nil {
		return err
	}
	arena.Replace(cat)
	return nil
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return &config.ConfigError{Path: configPath, Issues: issues}
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// === Extractors ===
	fetcher := extractor.NewFetcher(extractor.FetcherOptions{
		Timeout:        cfg.Extract.Timeout.Value(),
		UserAgent:      cfg.Extract.UserAgent,
		RequestsPerSec: cfg.Extract.RequestsPerSec,
	})
	registry := extractor.NewRegistry(
		extractor.NewVOE(fetcher),
		extractor.NewVidoza(fetcher),
		extractor.NewDoodstream(),
	)

	// Every provider named in a priority list must have an extractor.
	// Misconfiguration fails at boot, not per request.
	if err := registry.Validate(cfg.Priority.Providers); err != nil {
		return fmt.Errorf("priority.providers: %w", err)
	}
	for _, site := range cfg.Sites {
		if err := registry.Validate(site.Providers); err != nil {
			return fmt.Errorf("site %s providers: %w", site.Tag, err)
		}
	}

	// === Catalogs ===
	arena := catalog.NewArena()
	for _, site := range cfg.Sites {
		if err := loadSite(arena, site); err != nil {
			return fmt.Errorf("load site %s: %w", site.Tag, err)
		}
	}

	// === Resolution pipeline ===
	sitePrio := make(map[string]resolver.Priority, len(cfg.Sites))
	for _, site := range cfg.Sites {
		langs, providers := cfg.SitePriority(site)
		sitePrio[site.Tag] = resolver.Priority{Languages: langs, Providers: providers}
	}
	res := resolver.New(arena, registry, resolver.Options{
		Defaults: resolver.Priority{
			Languages: cfg.Priority.Languages,
			Providers: cfg.Priority.Providers,
		},
		Sites:          sitePrio,
		AttemptTimeout: cfg.Extract.Timeout.Value(),
		Logger:         logger.With("component", "resolver"),
	})

	m := metrics.New()
	cache := rescache.New(res.Resolve, rescache.Options{
		TTL:        cfg.Cache.ResolveTTL.Value(),
		FailureTTL: cfg.Cache.FailureTTL.Value(),
		Metrics:    m,
	})

	// === HTTP Setup ===
	mux := http.NewServeMux()

	apiServer := api.New(api.Options{
		Arena:   arena,
		Cache:   cache,
		Metrics: m,
		Reload: func(tag string) error {
			site, ok := cfg.Site(tag)
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrUnknownSite, tag)
			}
			return loadSite(arena, site)
		},
		Logger:  logger.With("component", "api"),
		Version: version,
	})
	apiServer.RegisterRoutes(mux)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"sites", len(cfg.Sites),
		"providers", registry.Names(),
		"resolve_ttl", cfg.Cache.ResolveTTL.Value().String(),
		"log_level", cfg.Server.LogLevel,
	)

	handler := api.LogRequests(api.CountRequests(mux, m), logger)
	srv := &http.Server{Addr: addr, Handler: handler}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	// Graceful HTTP shutdown with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
