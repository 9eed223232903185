package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-blend/app/aggregator"
	"github.com/lysyi3m/rss-blend/app/api"
	"github.com/lysyi3m/rss-blend/app/cache"
	"github.com/lysyi3m/rss-blend/app/cfg"
	"github.com/lysyi3m/rss-blend/app/feed"
	"github.com/lysyi3m/rss-blend/app/tasks"
	"github.com/lysyi3m/rss-blend/app/transport"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if appCfg.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	slog.Info("Starting RSS Blend server", "version", appCfg.Version)

	registry := feed.NewChannelRegistry(appCfg.ChannelsDir)
	if err := registry.Run(); err != nil {
		slog.Error("Failed to load channel configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Channel configurations loaded", "count", registry.GetConfigCount(), "dir", appCfg.ChannelsDir)

	ctx := context.Background()

	store, err := cache.New(ctx, appCfg)
	if err != nil {
		slog.Error("Failed to initialize cache", "backend", appCfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Cache initialized", "backend", appCfg.CacheBackend, "ttl", time.Duration(appCfg.CacheTTL)*time.Second)

	if sqliteStore, ok := store.(*cache.SQLiteStore); ok {
		if purged, err := sqliteStore.Purge(ctx); err != nil {
			slog.Warn("Failed to purge expired cache entries", "error", err)
		} else if purged > 0 {
			slog.Info("Expired cache entries purged", "count", purged)
		}
	}

	httpTransport := transport.NewHTTPTransport(appCfg.UserAgent,
		time.Duration(appCfg.RequestTimeout)*time.Second, appCfg.RequestRetries)

	client := aggregator.NewClient(httpTransport, feed.NewHTMLSanitizer())
	client.SetChannels(registry.Sources())
	client.SetConcurrency(appCfg.FetchConcurrency)
	client.SetHeaders(appCfg.RequestHeaders)

	cachedClient := aggregator.NewCachedClient(client, store)

	scheduler := tasks.NewScheduler(registry, cachedClient)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "warm_interval", appCfg.WarmInterval)

	handler := api.NewHandler(registry, cachedClient, feed.NewFilterer(), scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(appCfg.RequestTimeout+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	if client.HasErrors() {
		slog.Warn("Source errors were recorded during this run", "count", len(client.Errors()))
	}

	slog.Info("RSS Blend server shutdown complete")
}
