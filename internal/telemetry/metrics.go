// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the process-wide operation counters.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts operation outcomes across the bridge and decode paths.
type Metrics struct {
	Submitted prometheus.Counter
	Completed prometheus.Counter
	TimedOut  prometheus.Counter
	Late      prometheus.Counter
	Malformed prometheus.Counter
	Dropped   prometheus.Counter
}

// New builds the counter set and registers it with reg. Passing
// prometheus.DefaultRegisterer wires the standard /metrics endpoint.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "ops", Name: "submitted_total",
			Help: "Operations handed to the transport.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "ops", Name: "completed_total",
			Help: "Operations resolved by a transport completion.",
		}),
		TimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "ops", Name: "timed_out_total",
			Help: "Operations abandoned by the waiter before completion.",
		}),
		Late: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "ops", Name: "late_completions_total",
			Help: "Completions that arrived after their operation was resolved.",
		}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "ops", Name: "malformed_payloads_total",
			Help: "Completion payloads rejected by the wire decoder.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ca", Subsystem: "monitor", Name: "dropped_events_total",
			Help: "Monitor events discarded because a subscriber queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Submitted, m.Completed, m.TimedOut, m.Late, m.Malformed, m.Dropped)
	}
	return m
}

// NewNop builds an unregistered counter set for tests.
func NewNop() *Metrics { return New(nil) }
