// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	config, err := loadConfigFromFile("./test")
	require.NoError(t, err)

	assert.Equal(t, "ca-sim", config.Service.Name)
	assert.Equal(t, 49990, config.Service.Port)
	assert.Equal(t, 2.5, config.Client.ConnectTimeout)
	assert.True(t, config.Simulator.Enabled)
	assert.Equal(t, "./test/pvs.yaml", config.Simulator.Fixture)

	// Unset tunables fall back to defaults.
	assert.Equal(t, 16, config.Client.MonitorDepth)
	assert.Equal(t, 30, config.Janitor.EverySeconds)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfigFromFile("./nosuchdir")
	assert.Error(t, err)
}
