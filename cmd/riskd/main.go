// riskd - Customer risk scoring with explanations, ready in 60 seconds.
// Copyright (c) 2025 trustvault
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/trustvault/riskd/internal/alerts"
	"github.com/trustvault/riskd/internal/api"
	"github.com/trustvault/riskd/internal/bus"
	"github.com/trustvault/riskd/internal/cache"
	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/history"
	"github.com/trustvault/riskd/internal/repository"
	"github.com/trustvault/riskd/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("RISKD_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting riskd",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("RISKD_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	if port := os.Getenv("RISKD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize History Service
	hist := history.NewService(repo, cacheImpl, logger)
	slog.Info("history service initialized")

	// Initialize Alert Engine
	engine, err := alerts.NewEngine()
	if err != nil {
		slog.Error("failed to initialize alert engine", "error", err)
		os.Exit(1)
	}

	tenantIDs := parseTenants(os.Getenv("RISKD_TENANTS"))
	if err := loadAlertRules(ctx, repo, engine, tenantIDs); err != nil {
		slog.Error("failed to load alert rules", "error", err)
		os.Exit(1)
	}
	slog.Info("alert engine initialized", "rules_count", engine.RulesCount())

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("RISKD_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, hist, engine, cfg.Thresholds)

		if err := asyncWorker.Start(worker.Config{TenantIDs: tenantIDs}); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, hist, cacheImpl, busImpl, engine, cfg.Thresholds, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("riskd is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("riskd shutdown complete")
}

// parseTenants splits a comma-separated tenant list from the environment.
func parseTenants(raw string) []string {
	if raw == "" {
		return nil
	}
	var tenants []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tenants = append(tenants, t)
		}
	}
	return tenants
}

// loadAlertRules loads each tenant's rules from the repository, falling
// back to the built-in defaults when a tenant has none configured.
func loadAlertRules(ctx context.Context, repo domain.Repository, engine *alerts.Engine, tenantIDs []string) error {
	loaded := 0
	for _, tenantID := range tenantIDs {
		rules, err := repo.ListAlertRules(ctx, tenantID)
		if err != nil {
			slog.Warn("failed to list alert rules", "tenant_id", tenantID, "error", err)
			continue
		}
		if err := engine.LoadRules(rules); err != nil {
			return err
		}
		loaded += len(rules)
	}

	if loaded == 0 {
		slog.Info("no configured alert rules - loading built-in defaults")
		return engine.LoadRules(alerts.DefaultRules())
	}
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               riskd                       ║")
	fmt.Println("  ║     Customer Risk Scoring Engine          ║")
	fmt.Println("  ║     Every score, explained.               ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /api/v1/risk-score             - Score a feature vector")
	fmt.Println("    POST /api/v1/customers/score        - Score a customer record")
	fmt.Println("    GET  /api/v1/scores                 - List score history")
	fmt.Println("    GET  /api/v1/scores/{id}            - Customer score history")
	fmt.Println("    GET  /api/v1/scores/{id}/latest     - Latest customer score")
	fmt.Println("    DELETE /api/v1/scores               - Clear score history")
	fmt.Println("    GET  /api/v1/alert-rules            - List intervention rules")
	fmt.Println("    POST /api/v1/alert-rules            - Create a rule")
	fmt.Println("    POST /api/v1/alert-rules/reload     - Hot-reload rules")
	fmt.Println("    GET  /health                        - Health check")
	fmt.Println()
}
