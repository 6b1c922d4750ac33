// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"log/slog"
	"os"
	"strings"
)

var (
	ServiceName    string
	ServiceVersion string
	CurrentConfig  *Config
	LoggingClient  *slog.Logger = slog.Default()
)

// InitLogging installs the process logger at the configured level and
// returns it.
func InitLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	LoggingClient = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	return LoggingClient
}
