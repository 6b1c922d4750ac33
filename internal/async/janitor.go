// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/robfig/cron.v2"
)

var (
	janOnce sync.Once
	cr      *cron.Cron
)

// StartJanitor schedules a periodic sweep of abandoned pending operations
// on the bridge. Operations older than maxAge were submitted but never
// awaited (or their waiter died); the sweep reclaims their registry slots.
func StartJanitor(lc *slog.Logger, b *Bridge, every, maxAge time.Duration) {
	janOnce.Do(func() {
		if lc == nil {
			lc = slog.Default()
		}
		cr = cron.New()
		sched := fmt.Sprintf("@every %s", every)
		if _, err := cr.AddFunc(sched, func() { b.sweep(maxAge) }); err != nil {
			lc.Error("failed to schedule pending sweep", "schedule", sched, "error", err)
			return
		}
		cr.Start()
		lc.Info("started pending-operation janitor", "every", every.String(), "maxAge", maxAge.String())
	})
}

// StopJanitor halts the sweep schedule.
func StopJanitor() {
	if cr != nil {
		cr.Stop()
	}
}
