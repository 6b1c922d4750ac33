// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package common carries the service configuration and the constants
// shared across the internal packages.
package common

// Config holds the local configuration settings for a client service,
// populated from the TOML file under the res directory.
type Config struct {
	Service   ServiceInfo
	Client    ClientInfo
	Janitor   JanitorInfo
	Simulator SimulatorInfo
	Logging   LoggingInfo
}

// ServiceInfo identifies the service and its REST listener.
type ServiceInfo struct {
	Name string
	Host string
	Port int
}

// ClientInfo tunes channel resolution and monitor delivery.
type ClientInfo struct {
	// ConnectTimeout bounds channel resolution, in seconds.
	ConnectTimeout float64
	// MonitorDepth is the per-subscription event buffer depth.
	MonitorDepth int
	// CharTextThreshold is the CHAR array length up to which values
	// are rendered as text when converted to strings.
	CharTextThreshold int
}

// JanitorInfo tunes the abandoned-operation sweep.
type JanitorInfo struct {
	EverySeconds  int
	MaxAgeSeconds int
}

// SimulatorInfo points at the PV fixture file used when the service runs
// against the in-memory transport.
type SimulatorInfo struct {
	Enabled bool
	Fixture string
}

// LoggingInfo selects the log level: debug, info, warn or error.
type LoggingInfo struct {
	Level string
}

// Defaults fills zero-valued tunables so a sparse TOML file still yields
// a usable configuration.
func (c *Config) Defaults() {
	if c.Client.ConnectTimeout <= 0 {
		c.Client.ConnectTimeout = 5.0
	}
	if c.Client.MonitorDepth <= 0 {
		c.Client.MonitorDepth = 16
	}
	if c.Client.CharTextThreshold <= 0 {
		c.Client.CharTextThreshold = 160
	}
	if c.Janitor.EverySeconds <= 0 {
		c.Janitor.EverySeconds = 30
	}
	if c.Janitor.MaxAgeSeconds <= 0 {
		c.Janitor.MaxAgeSeconds = 300
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
