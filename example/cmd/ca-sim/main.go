// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// ca-sim serves a fixture of simulated process variables over the REST
// surface. Useful for trying the client API without a live network.
package main

import (
	"github.com/epicsgo/caclient/pkg/startup"
)

const (
	version     string = "0.1"
	serviceName string = "ca-sim"
)

func main() {
	startup.Bootstrap(serviceName, version, "./res")
}
