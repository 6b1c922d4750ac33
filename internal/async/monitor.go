// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package async

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/epicsgo/caclient/internal/telemetry"
	"github.com/epicsgo/caclient/pkg/dbr"
	"github.com/epicsgo/caclient/pkg/models"
)

// Subscription is one live monitor. Decoded events arrive on Events; a
// slow consumer loses the oldest buffered event, never the newest.
type Subscription struct {
	id     string
	name   string
	token  models.Token
	ftype  dbr.FieldType
	count  int
	events chan *dbr.Value
}

func (s *Subscription) ID() string            { return s.id }
func (s *Subscription) Name() string          { return s.name }
func (s *Subscription) Token() models.Token   { return s.token }
func (s *Subscription) Events() <-chan *dbr.Value { return s.events }

// Monitors tracks live subscriptions by token and by ID, and turns raw
// monitor completions into decoded values on the right channel.
type Monitors struct {
	lc      *slog.Logger
	metrics *telemetry.Metrics

	mu      sync.Mutex
	byToken map[models.Token]*Subscription
	byID    map[string]*Subscription
}

func NewMonitors(lc *slog.Logger, m *telemetry.Metrics) *Monitors {
	if lc == nil {
		lc = slog.Default()
	}
	if m == nil {
		m = telemetry.NewNop()
	}
	return &Monitors{
		lc:      lc,
		metrics: m,
		byToken: make(map[models.Token]*Subscription),
		byID:    make(map[string]*Subscription),
	}
}

// Register creates a subscription for the given token with a buffer of
// depth events and returns it. Depth must be at least 1.
func (ms *Monitors) Register(tok models.Token, name string, ftype dbr.FieldType, count, depth int) *Subscription {
	if depth < 1 {
		depth = 1
	}
	s := &Subscription{
		id:     uuid.New().String(),
		name:   name,
		token:  tok,
		ftype:  ftype,
		count:  count,
		events: make(chan *dbr.Value, depth),
	}
	ms.mu.Lock()
	ms.byToken[tok] = s
	ms.byID[s.id] = s
	ms.mu.Unlock()
	return s
}

// Deliver decodes a monitor completion and queues it on its subscription.
// Unknown tokens are ignored; the subscription was cleared while the
// event was in flight. Events whose type or count do not match what was
// subscribed are rejected before decoding.
func (ms *Monitors) Deliver(c models.Completion) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.byToken[c.Token]
	if !ok {
		ms.metrics.Late.Inc()
		return
	}
	if c.FieldType != s.ftype || c.Count > s.count {
		ms.metrics.Malformed.Inc()
		ms.lc.Warn("monitor event shape mismatch", "pv", s.name,
			"type", c.FieldType.String(), "count", c.Count,
			"subscribedType", s.ftype.String(), "subscribedCount", s.count)
		return
	}
	if c.Status != models.ECANormal {
		ms.lc.Warn("monitor event with abnormal status", "pv", s.name, "status", int32(c.Status))
		return
	}

	v, err := dbr.Decode(c.Raw, c.FieldType, c.Count)
	if err != nil {
		ms.metrics.Malformed.Inc()
		ms.lc.Error("monitor payload rejected", "pv", s.name, "error", err)
		return
	}

	for {
		select {
		case s.events <- v:
			return
		default:
			// Full: shed the oldest event and retry.
			select {
			case <-s.events:
				ms.metrics.Dropped.Inc()
			default:
			}
		}
	}
}

// Remove withdraws a subscription by ID, closes its event channel, and
// returns its token so the caller can clear it at the transport.
func (ms *Monitors) Remove(id string) (models.Token, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.byID[id]
	if !ok {
		return 0, false
	}
	delete(ms.byID, id)
	delete(ms.byToken, s.token)
	close(s.events)
	return s.token, true
}

// Owns reports whether the token belongs to a live subscription. Used to
// route completions between the monitor path and the one-shot bridge.
func (ms *Monitors) Owns(tok models.Token) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, ok := ms.byToken[tok]
	return ok
}

// Tokens snapshots the live subscription tokens.
func (ms *Monitors) Tokens() []models.Token {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	toks := make([]models.Token, 0, len(ms.byToken))
	for t := range ms.byToken {
		toks = append(toks, t)
	}
	return toks
}

// Subscriptions snapshots the live subscriptions.
func (ms *Monitors) Subscriptions() []*Subscription {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	subs := make([]*Subscription, 0, len(ms.byID))
	for _, s := range ms.byID {
		subs = append(subs, s)
	}
	return subs
}

// Len reports the number of live subscriptions.
func (ms *Monitors) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.byID)
}
