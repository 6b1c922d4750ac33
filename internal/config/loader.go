// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/epicsgo/caclient/internal/common"
)

// LoadConfig loads the local TOML configuration file from confDir and
// returns the populated Config with defaults applied.
func LoadConfig(confDir string) (*common.Config, error) {
	return loadConfigFromFile(confDir)
}

func loadConfigFromFile(confDir string) (config *common.Config, err error) {
	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}

	p := path.Join(confDir, common.ConfigFileName)
	absPath, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("could not create absolute path to load configuration: %s; %v", p, err)
	}
	common.LoggingClient.Info("loading configuration", "path", absPath)

	// The toml package can panic on invalid input, so recover and
	// turn that into an error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not load configuration file; invalid TOML (%s)", p)
		}
	}()

	contents, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration file (%s): %v", p, err)
	}

	config = &common.Config{}
	if err = toml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("unable to parse configuration file (%s): %v", p, err)
	}

	config.Defaults()
	return config, nil
}
