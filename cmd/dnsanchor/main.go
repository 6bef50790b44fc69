// dnsanchor keeps a DNS record pointed at this machine's current external
// address. Each pass it resolves the public IP per address family, compares
// it with the published record, and rewrites the record through the
// configured backend when they differ.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/internal/config"
	"gitlab.bluewillows.net/root/dnsanchor/internal/health"
	"gitlab.bluewillows.net/root/dnsanchor/internal/metrics"
	"gitlab.bluewillows.net/root/dnsanchor/internal/reconciler"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/httputil"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/ipresolve"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
	"gitlab.bluewillows.net/root/dnsanchor/providers/cloudflare"
	"gitlab.bluewillows.net/root/dnsanchor/providers/rfc2136"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-27"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (YAML or TOML)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dnsanchor %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		return nil
	}

	// Load configuration first, fail fast on a broken file.
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version)

	logger.Info("dnsanchor starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.String("domain", cfg.Domain),
		slog.String("provider", cfg.ProviderType()),
		slog.Bool("ipv4", cfg.IPv4),
		slog.Bool("ipv6", cfg.IPv6),
		slog.Duration("interval", cfg.Interval),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prov, err := buildProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	resolver := buildResolver(cfg, logger)

	rec, err := reconciler.New(resolver, prov, cfg.Domain, cfg.Families(),
		reconciler.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating reconciler: %w", err)
	}

	scheduler, err := reconciler.NewScheduler(rec, cfg.Interval,
		reconciler.WithSchedulerLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	healthServer := health.New(cfg.HealthPort,
		health.WithLogger(logger),
	)
	healthServer.RegisterChecker("provider:"+prov.Name(), prov.Ping)
	healthServer.RegisterStatus("reconciler", scheduler.Degraded)

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	// The scheduler runs its first pass immediately, then every interval.
	schedulerDone := make(chan error, 1)
	go func() {
		schedulerDone <- scheduler.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-schedulerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
	}

	logger.Info("shutting down...")
	cancel()

	// Let an in-flight pass finish before tearing down.
	select {
	case <-schedulerDone:
	case <-time.After(10 * time.Second):
		logger.Warn("scheduler did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("dnsanchor shutdown complete")
	return nil
}

// buildProvider constructs the configured DNS backend. Config validation
// guarantees exactly one block is present.
func buildProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch {
	case cfg.Cloudflare != nil:
		return cloudflare.New("cloudflare", cfg.Cloudflare,
			cloudflare.WithLogger(logger),
		)

	case cfg.RFC2136 != nil:
		return rfc2136.New("rfc2136", cfg.RFC2136,
			rfc2136.WithLogger(logger),
		)

	default:
		return nil, fmt.Errorf("no provider configured")
	}
}

// buildResolver constructs the external IP resolver with any configured
// endpoint overrides.
func buildResolver(cfg *config.Config, logger *slog.Logger) *ipresolve.Resolver {
	opts := []ipresolve.Option{
		ipresolve.WithLogger(logger),
		ipresolve.WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
			Logger: logger,
		})),
	}

	if len(cfg.EndpointsIPv4) > 0 {
		opts = append(opts, ipresolve.WithEndpoints(provider.FamilyIPv4, cfg.EndpointsIPv4))
	}
	if len(cfg.EndpointsIPv6) > 0 {
		opts = append(opts, ipresolve.WithEndpoints(provider.FamilyIPv6, cfg.EndpointsIPv6))
	}
	if cfg.ResolverTimeout > 0 {
		opts = append(opts, ipresolve.WithEndpointTimeout(cfg.ResolverTimeout))
	}

	return ipresolve.New(opts...)
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
