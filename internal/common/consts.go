// -*- mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package common

const (
	APIv1Prefix = "/api/v1"

	ConfigDirectory = "./res"
	ConfigFileName  = "configuration.toml"

	APIPvRoute      = APIv1Prefix + "/pv"
	APIInfoRoute    = APIv1Prefix + "/info"
	APIPingRoute    = APIv1Prefix + "/ping"
	APIMetricsRoute = "/metrics"

	NameVar string = "name"

	CorrelationHeader = "X-Correlation-ID"

	// Arrays longer than this are never auto-monitored and never
	// rendered element by element in string conversions.
	AutoMonitorMaxLength = 65536
)
