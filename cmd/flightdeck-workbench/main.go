// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/flightdeck-foundation/flightdeck/lib/config"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich/gitlocal"
	"github.com/flightdeck-foundation/flightdeck/lib/gateway"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/service"
	"github.com/flightdeck-foundation/flightdeck/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("flightdeck-workbench", pflag.ContinueOnError)
	configPath := flags.String("config", "", "config file path (defaults to $FLIGHTDECK_CONFIG)")
	listen := flags.String("listen", "", "listen address override")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("flightdeck-workbench %s\n", version.Full())
		return nil
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "workbench")

	timeout, err := cfg.GatewayTimeout()
	if err != nil {
		return fmt.Errorf("gateway timeout: %w", err)
	}
	idleTimeout, err := cfg.SessionIdleTimeout()
	if err != nil {
		return fmt.Errorf("session idle timeout: %w", err)
	}

	spool, err := gateway.NewSpool(cfg.Paths.Spool)
	if err != nil {
		return err
	}
	client, err := gateway.NewClient(gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		Token:      cfg.Gateway.Token,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
		Spool:      spool,
	})
	if err != nil {
		return err
	}

	var sources enrich.Sources
	if cfg.Enrich.CodeHost == "local" {
		sources.CodeHost = gitlocal.New(cfg.Paths.Clones)
	}

	store := NewStore(nil, logger)
	handler := NewHandler(HandlerConfig{
		Store:    store,
		Presets:  gateway.NewFileSource(cfg.Paths.Presets),
		Launcher: client,
		Environments: func(name string) (*schema.EnvironmentSnapshot, error) {
			return loadEnvironment(cfg.EnvironmentFile(name))
		},
		Sources:       sources,
		StageExecMode: cfg.Workbench.StageExecMode,
		Logger:        logger,
	})

	address := cfg.Workbench.Listen
	if *listen != "" {
		address = *listen
	}
	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: address,
		Handler: service.RequireBearer(cfg.Workbench.Token, handler.Router()),
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reapLoop(ctx, store, idleTimeout)

	logger.Info("workbench starting",
		"version", version.Short(),
		"listen", address,
		"idle_timeout", idleTimeout.String(),
	)
	return server.Serve(ctx)
}

// reapLoop periodically discards idle sessions until ctx is
// cancelled.
func reapLoop(ctx context.Context, store *Store, idleTimeout time.Duration) {
	interval := idleTimeout / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Reap(idleTimeout)
		}
	}
}

// loadEnvironment reads an environment snapshot from a JSON file.
func loadEnvironment(path string) (*schema.EnvironmentSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment snapshot: %w", err)
	}
	var snapshot schema.EnvironmentSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing environment snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}
