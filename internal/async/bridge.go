// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package async bridges the transport's callback-style completions to
// blocking waiters. One Bridge serves a whole client: it mints tokens,
// tracks pending operations, and resolves each exactly once, whichever
// of completion or timeout arrives first.
package async

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/epicsgo/caclient/internal/telemetry"
	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/models"
)

// DefaultTimeout scales the wait deadline with the element count so large
// array transfers are not cut off by the scalar default.
func DefaultTimeout(count int) time.Duration {
	if count < 1 {
		count = 1
	}
	secs := 1.0 + math.Log10(float64(count))
	return time.Duration(secs * float64(time.Second))
}

type pending struct {
	done    chan models.Completion
	created time.Time
}

// Bridge is the pending-operation registry. It implements
// models.CompletionSink so it can be handed to the transport directly.
type Bridge struct {
	lc      *slog.Logger
	metrics *telemetry.Metrics

	next uint64

	mu      sync.Mutex
	pending map[models.Token]*pending
}

func NewBridge(lc *slog.Logger, m *telemetry.Metrics) *Bridge {
	if lc == nil {
		lc = slog.Default()
	}
	if m == nil {
		m = telemetry.NewNop()
	}
	return &Bridge{
		lc:      lc,
		metrics: m,
		pending: make(map[models.Token]*pending),
	}
}

// MintToken issues a token unique across the bridge's lifetime. Monitor
// subscriptions draw from the same sequence so one dispatcher can route
// completions for both.
func (b *Bridge) MintToken() models.Token {
	return models.Token(atomic.AddUint64(&b.next, 1))
}

// Submit mints a token, registers it, and runs the submission function.
// A non-normal synchronous status unregisters the token and returns the
// translated error; no completion is expected in that case.
func (b *Bridge) Submit(op string, submit func(models.Token) models.StatusCode) (models.Token, error) {
	tok := b.MintToken()

	b.mu.Lock()
	b.pending[tok] = &pending{done: make(chan models.Completion, 1), created: time.Now()}
	b.mu.Unlock()

	b.metrics.Submitted.Inc()

	if status := submit(tok); status != models.ECANormal {
		b.remove(tok)
		return 0, status.Err(op)
	}
	return tok, nil
}

// Await blocks until the token's completion arrives or ctx expires. On
// expiry it withdraws the token so a late completion becomes a no-op; if
// the completion wins that race, Await returns it even though ctx fired.
func (b *Bridge) Await(ctx context.Context, tok models.Token) (models.Completion, error) {
	b.mu.Lock()
	p, ok := b.pending[tok]
	b.mu.Unlock()
	if !ok {
		return models.Completion{}, caerrors.ErrTimeout
	}

	select {
	case c, ok := <-p.done:
		if !ok {
			// The sweep reclaimed the token while we were blocked.
			b.metrics.TimedOut.Inc()
			return models.Completion{}, caerrors.ErrTimeout
		}
		return c, nil
	case <-ctx.Done():
		if b.remove(tok) {
			b.metrics.TimedOut.Inc()
			return models.Completion{}, caerrors.ErrTimeout
		}
		// The token is already gone: either a completion landed between
		// ctx firing and our withdrawal, or the sweep closed the channel.
		c, ok := <-p.done
		if !ok {
			b.metrics.TimedOut.Inc()
			return models.Completion{}, caerrors.ErrTimeout
		}
		return c, nil
	}
}

// Complete resolves the pending operation identified by c.Token. A token
// that is no longer pending is counted and otherwise ignored; the waiter
// already resolved by timeout.
func (b *Bridge) Complete(c models.Completion) {
	b.mu.Lock()
	p, ok := b.pending[c.Token]
	if ok {
		delete(b.pending, c.Token)
	}
	b.mu.Unlock()

	if !ok {
		b.metrics.Late.Inc()
		b.lc.Debug("late completion discarded", "token", uint64(c.Token), "status", int32(c.Status))
		return
	}
	b.metrics.Completed.Inc()
	p.done <- c
}

// PendingCount reports the number of unresolved tokens.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) remove(tok models.Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[tok]; !ok {
		return false
	}
	delete(b.pending, tok)
	return true
}

// sweep drops pendings older than maxAge. Waiters normally withdraw their
// own tokens on timeout; this catches submissions nobody awaited. Closing
// the done channel releases any waiter still blocked on the entry, which
// then reports a timeout.
func (b *Bridge) sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for tok, p := range b.pending {
		if p.created.Before(cutoff) {
			delete(b.pending, tok)
			close(p.done)
			n++
		}
	}
	if n > 0 {
		b.lc.Warn("swept abandoned operations", "count", n)
	}
	return n
}
