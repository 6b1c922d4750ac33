// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package startup boots a client service: configuration, logging, the
// transport, the REST listener, and a clean shutdown on SIGINT/SIGTERM.
package startup

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/epicsgo/caclient/internal/async"
	"github.com/epicsgo/caclient/internal/cache"
	"github.com/epicsgo/caclient/internal/common"
	"github.com/epicsgo/caclient/internal/config"
	"github.com/epicsgo/caclient/internal/handler"
	"github.com/epicsgo/caclient/internal/simulator"
	"github.com/epicsgo/caclient/internal/telemetry"
	"github.com/epicsgo/caclient/pkg/client"
	"github.com/epicsgo/caclient/pkg/models"
)

// Bootstrap runs the service until a termination signal arrives. confDir
// may be empty to use the default res directory.
func Bootstrap(serviceName string, version string, confDir string) {
	cfg, err := config.LoadConfig(confDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	common.ServiceName = serviceName
	common.ServiceVersion = version
	common.CurrentConfig = cfg
	lc := common.InitLogging(cfg.Logging.Level)
	lc.Info("starting service", "name", serviceName, "version", version)

	var transport models.Transport
	if cfg.Simulator.Enabled {
		transport, err = simulator.New(lc, cfg.Simulator.Fixture)
		if err != nil {
			lc.Error("simulator startup failed", "error", err)
			os.Exit(1)
		}
	} else {
		lc.Error("no transport configured; set [Simulator] Enabled")
		os.Exit(1)
	}

	cache.InitCache()
	metrics := telemetry.New(prometheus.DefaultRegisterer)
	cl := client.New(transport, cfg, lc, metrics)
	cl.StartJanitor(
		time.Duration(cfg.Janitor.EverySeconds)*time.Second,
		time.Duration(cfg.Janitor.MaxAgeSeconds)*time.Second,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.Port),
		Handler: handler.InitRestRoutes(cl, lc),
	}

	errCh := make(chan error, 1)
	go func() {
		lc.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lc.Info("terminating", "signal", sig.String())
	case err := <-errCh:
		lc.Error("listener failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	async.StopJanitor()
	cl.Close()
}
