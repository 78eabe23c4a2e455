// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package main is the entry point for the Translocus server.
//
// Translocus sits between a download box and a remote Plex server: it
// receives transfer-complete events, translates download paths into the
// media server's paths, coalesces them into directory-level partial scans
// (optionally refreshing the rclone VFS cache first), and on a schedule
// merges the local hosts file into a router's hosts file over SSH.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file via Koanf v2
//  2. Path translator: parses the three textual mapping settings
//  3. Upstream clients: Plex (circuit breaker + rate limit), rclone, router SSH
//  4. Event bus: in-process Watermill pub/sub for transfer events
//  5. Supervisor tree: hosts sync, scan coordinator, HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then a config file, then
// built-in defaults. The config package documents every setting and its
// environment variable.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests (10s timeout), the scan queue's pending timer
// is cancelled, and the event bus is closed.
//
// # Example Usage
//
// Scan relay only:
//
//	export SCAN_ENABLED=true
//	export PLEX_URL=http://localhost:32400
//	export PLEX_TOKEN=your-plex-token
//	export PATH_MAPPING=/downloads:/media
//	export LIBRARY_MAPPING=movie:1,tv:2
//	./translocus
//
// With hosts sync:
//
//	export HOSTSYNC_ENABLED=true
//	export ROUTER_HOST=192.168.1.1
//	export ROUTER_USERNAME=root
//	export ROUTER_PASSWORD=secret
//	export HOSTSYNC_CRON="0 6 * * *"
//	./translocus
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/translocus/internal/api"
	"github.com/tomtom215/translocus/internal/config"
	"github.com/tomtom215/translocus/internal/hostsync"
	"github.com/tomtom215/translocus/internal/logging"
	"github.com/tomtom215/translocus/internal/mediaserver"
	"github.com/tomtom215/translocus/internal/notify"
	"github.com/tomtom215/translocus/internal/pathmap"
	"github.com/tomtom215/translocus/internal/rclone"
	"github.com/tomtom215/translocus/internal/scanner"
	"github.com/tomtom215/translocus/internal/supervisor"
	"github.com/tomtom215/translocus/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Bool("scan_enabled", cfg.Scan.Enabled).
		Bool("hostsync_enabled", cfg.HostSync.Enabled).
		Int("port", cfg.Server.Port).
		Msg("Starting Translocus")

	translator := pathmap.New(cfg.Scan.PathLibraryMapping, cfg.Scan.PathMapping, cfg.Scan.LibraryMapping)
	notifier := notify.New(cfg.Notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	bus := scanner.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Scan pipeline (optional)
	var (
		coordinator  *scanner.Coordinator
		plexBreaker  *mediaserver.CircuitBreakerClient
		rcloneClient *rclone.Client
	)
	if cfg.Scan.Enabled {
		plexClient := mediaserver.NewPlexClient(cfg.Scan.Plex.URL, cfg.Scan.Plex.Token, cfg.Scan.Timeout)
		plexBreaker = mediaserver.NewCircuitBreakerClient(plexClient)
		if err := plexBreaker.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to connect to Plex (will retry)")
		} else {
			logging.Info().Msg("Connected to Plex successfully")
		}

		var vfs scanner.VFSRefresher
		if cfg.Scan.Rclone.RefreshEnabled {
			rcloneClient = rclone.New(cfg.Scan.Rclone.URL, cfg.Scan.Timeout)
			vfs = rcloneClient
		}

		coordinator = scanner.NewCoordinator(cfg.Scan, translator, plexBreaker, vfs, notifier, bus)
		tree.AddScanService(coordinator)
		logging.Info().Msg("Scan coordinator added to supervisor tree")
	} else {
		logging.Info().Msg("Scan relay disabled")
	}

	// Hosts sync (optional)
	var (
		syncService  *hostsync.Service
		routerClient *hostsync.RouterClient
	)
	if cfg.HostSync.Enabled {
		routerClient = hostsync.NewRouterClient(cfg.HostSync.Router)
		syncService, err = hostsync.New(cfg.HostSync, routerClient, notifier)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create hosts sync service")
		}
		tree.AddSyncService(syncService)
		logging.Info().Str("cron", cfg.HostSync.Cron).Msg("Hosts sync service added to supervisor tree")
	} else {
		logging.Info().Msg("Hosts sync disabled")
	}

	// HTTP surface
	handler := api.NewHandler(
		busOrNil(bus, cfg.Scan.Enabled),
		scanTriggerOrNil(coordinator),
		hostsSyncerOrNil(syncService),
		pingerOrNil(plexBreaker),
		pingerOrNil(rcloneClient),
		pingerOrNil(routerClient),
		translator,
	)
	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.AuthToken = cfg.Server.AuthToken

	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg))
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// The handler treats nil collaborators as disabled features; typed nils
// inside non-nil interfaces would defeat those checks, hence the explicit
// conversions below.

func busOrNil(bus *scanner.Bus, scanEnabled bool) *scanner.Bus {
	if !scanEnabled {
		return nil
	}
	return bus
}

func scanTriggerOrNil(c *scanner.Coordinator) api.ScanTrigger {
	if c == nil {
		return nil
	}
	return c
}

func hostsSyncerOrNil(s *hostsync.Service) api.HostsSyncer {
	if s == nil {
		return nil
	}
	return s
}

func pingerOrNil[T interface {
	comparable
	api.Pinger
}](p T) api.Pinger {
	var zero T
	if p == zero {
		return nil
	}
	return p
}
