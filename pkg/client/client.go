// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package client is the high-level Channel Access API: typed gets and
// puts, metadata queries, string conversion, and persistent monitors,
// built on any models.Transport.
package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/epicsgo/caclient/internal/async"
	"github.com/epicsgo/caclient/internal/cache"
	"github.com/epicsgo/caclient/internal/common"
	"github.com/epicsgo/caclient/internal/telemetry"
	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/dbr"
	"github.com/epicsgo/caclient/pkg/models"
)

// Client wraps a transport with blocking, typed operations. Safe for
// concurrent use.
type Client struct {
	transport models.Transport
	bridge    *async.Bridge
	monitors  *async.Monitors
	lc        *slog.Logger

	connectTimeout    time.Duration
	monitorDepth      int
	charTextThreshold int
}

// New builds a client over transport and registers itself as the
// transport's completion sink. A nil cfg uses defaults.
func New(transport models.Transport, cfg *common.Config, lc *slog.Logger, m *telemetry.Metrics) *Client {
	if cfg == nil {
		cfg = &common.Config{}
		cfg.Defaults()
	}
	if lc == nil {
		lc = common.LoggingClient
	}
	cache.InitCache()

	c := &Client{
		transport:         transport,
		bridge:            async.NewBridge(lc, m),
		monitors:          async.NewMonitors(lc, m),
		lc:                lc,
		connectTimeout:    time.Duration(cfg.Client.ConnectTimeout * float64(time.Second)),
		monitorDepth:      cfg.Client.MonitorDepth,
		charTextThreshold: cfg.Client.CharTextThreshold,
	}
	if attacher, ok := transport.(interface{ Attach(models.CompletionSink) }); ok {
		attacher.Attach(c)
	}
	return c
}

// Complete routes a transport completion to the monitor path or the
// one-shot bridge. Implements models.CompletionSink.
func (c *Client) Complete(comp models.Completion) {
	if c.monitors.Owns(comp.Token) {
		c.monitors.Deliver(comp)
		return
	}
	c.bridge.Complete(comp)
}

// Connect resolves a PV name to a channel, serving repeats from the
// cache. Dead cached handles are re-resolved.
func (c *Client) Connect(ctx context.Context, name string) (models.Channel, error) {
	if ch, ok := cache.Channels().ForName(name); ok && ch.Connected() {
		return ch, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	ch, err := c.transport.ResolveChannel(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %q", name)
	}
	cache.Channels().Add(ch)
	c.lc.Debug("channel connected", "pv", name, "type", ch.FieldType().String(), "count", ch.ElementCount())
	return ch, nil
}

// Get reads the PV with value, alarm state and timestamp. The channel's
// native type is promoted to its TIME variant on the wire.
func (c *Client) Get(ctx context.Context, name string) (*dbr.Value, error) {
	return c.get(ctx, name, dbr.FamilyTime, 0)
}

// GetTimeVars is an explicit alias of Get for symmetry with GetCtrlVars.
func (c *Client) GetTimeVars(ctx context.Context, name string) (*dbr.Value, error) {
	return c.get(ctx, name, dbr.FamilyTime, 0)
}

// GetCtrlVars reads the PV with its control metadata: units, precision,
// limits, and enum state strings.
func (c *Client) GetCtrlVars(ctx context.Context, name string) (*dbr.Value, error) {
	return c.get(ctx, name, dbr.FamilyControl, 0)
}

// GetCount reads count elements of the PV with timestamp metadata. A
// count of 0 requests the channel's full native count.
func (c *Client) GetCount(ctx context.Context, name string, count int) (*dbr.Value, error) {
	return c.get(ctx, name, dbr.FamilyTime, count)
}

func (c *Client) get(ctx context.Context, name string, fam dbr.Family, count int) (*dbr.Value, error) {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return nil, err
	}
	if count <= 0 || count > ch.ElementCount() {
		count = ch.ElementCount()
	}
	reqType := dbr.Promote(ch.FieldType(), fam)
	if !reqType.IsValid() {
		return nil, &caerrors.TypeMismatchError{Want: fam.String(), Got: ch.FieldType().String()}
	}

	tok, err := c.bridge.Submit("get", func(t models.Token) models.StatusCode {
		return c.transport.SubmitGet(ch, reqType, count, t)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", name)
	}

	comp, err := c.await(ctx, tok, count)
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", name)
	}
	if err := comp.Status.Err("get"); err != nil {
		return nil, errors.Wrapf(err, "get %q", name)
	}

	v, err := dbr.Decode(comp.Raw, comp.FieldType, comp.Count)
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", name)
	}
	return v, nil
}

// Put writes value to the PV in its native type and blocks until the
// server acknowledges processing.
func (c *Client) Put(ctx context.Context, name string, value interface{}) error {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return err
	}
	count, raw, err := dbr.PrepareNative(ch.FieldType(), ch.ElementCount(), value)
	if err != nil {
		return errors.Wrapf(err, "put %q", name)
	}

	tok, err := c.bridge.Submit("put", func(t models.Token) models.StatusCode {
		return c.transport.SubmitPut(ch, ch.FieldType(), count, raw, t)
	})
	if err != nil {
		return errors.Wrapf(err, "put %q", name)
	}

	comp, err := c.await(ctx, tok, count)
	if err != nil {
		return errors.Wrapf(err, "put %q", name)
	}
	return errors.Wrapf(comp.Status.Err("put"), "put %q", name)
}

// PutNoWait writes value without waiting for the processing
// acknowledgement. The completion, when it arrives, is discarded.
func (c *Client) PutNoWait(ctx context.Context, name string, value interface{}) error {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return err
	}
	count, raw, err := dbr.PrepareNative(ch.FieldType(), ch.ElementCount(), value)
	if err != nil {
		return errors.Wrapf(err, "put %q", name)
	}
	_, err = c.bridge.Submit("put", func(t models.Token) models.StatusCode {
		return c.transport.SubmitPut(ch, ch.FieldType(), count, raw, t)
	})
	return errors.Wrapf(err, "put %q", name)
}

// await resolves the token against ctx, falling back to the count-scaled
// default deadline when ctx carries none.
func (c *Client) await(ctx context.Context, tok models.Token, count int) (models.Completion, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, async.DefaultTimeout(count))
		defer cancel()
	}
	return c.bridge.Await(ctx, tok)
}

// GetString reads the PV and renders it as text. An ENUM channel is
// fetched with its control metadata so the state table is available; if
// that fetch fails the value is re-read without it and rendered as the
// numeric index rather than failing the whole conversion.
func (c *Client) GetString(ctx context.Context, name string) (string, error) {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return "", err
	}

	if ch.FieldType() == dbr.Enum {
		v, err := c.get(ctx, name, dbr.FamilyControl, 0)
		if err == nil {
			return c.AsString(v), nil
		}
		c.lc.Warn("enum state table unavailable, rendering numeric", "pv", name, "error", err)
	}

	v, err := c.get(ctx, name, dbr.FamilyTime, 0)
	if err != nil {
		return "", err
	}
	return c.AsString(v), nil
}

// GetTimestamp reads the PV and returns its processing timestamp as
// seconds since the Unix epoch.
func (c *Client) GetTimestamp(ctx context.Context, name string) (float64, error) {
	v, err := c.get(ctx, name, dbr.FamilyTime, 1)
	if err != nil {
		return 0, err
	}
	return v.Meta.UnixTimestamp(), nil
}

// GetSeverity reads the PV and returns its alarm severity.
func (c *Client) GetSeverity(ctx context.Context, name string) (int16, error) {
	v, err := c.get(ctx, name, dbr.FamilyTime, 1)
	if err != nil {
		return 0, err
	}
	return v.Meta.Severity, nil
}

// GetPrecision returns the display precision of a floating-point PV.
func (c *Client) GetPrecision(ctx context.Context, name string) (int16, error) {
	v, err := c.get(ctx, name, dbr.FamilyControl, 1)
	if err != nil {
		return 0, err
	}
	if !v.Meta.HasPrecision {
		return 0, &caerrors.TypeMismatchError{Want: "floating-point PV", Got: v.Type.Native().String()}
	}
	return v.Meta.Precision, nil
}

// GetEnumStrings returns the state table of an ENUM PV.
func (c *Client) GetEnumStrings(ctx context.Context, name string) ([]string, error) {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return nil, err
	}
	if ch.FieldType() != dbr.Enum {
		return nil, &caerrors.TypeMismatchError{Want: dbr.Enum.String(), Got: ch.FieldType().String()}
	}
	v, err := c.get(ctx, name, dbr.FamilyControl, 1)
	if err != nil {
		return nil, err
	}
	return v.Meta.EnumStrings, nil
}

// Monitor subscribes to PV updates with timestamp metadata. Events arrive
// on the returned subscription until Unmonitor or Close. Channels longer
// than AutoMonitorMaxLength are refused; monitor them with an explicit
// bounded get loop instead.
func (c *Client) Monitor(ctx context.Context, name string, mask models.EventMask) (*async.Subscription, error) {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return nil, err
	}
	if ch.ElementCount() > common.AutoMonitorMaxLength {
		return nil, errors.Errorf("monitor %q: element count %d exceeds the automonitor limit %d",
			name, ch.ElementCount(), common.AutoMonitorMaxLength)
	}
	if mask == 0 {
		mask = models.DBEValue | models.DBEAlarm
	}

	reqType := dbr.Promote(ch.FieldType(), dbr.FamilyTime)
	tok := c.bridge.MintToken()
	sub := c.monitors.Register(tok, name, reqType, ch.ElementCount(), c.monitorDepth)

	if status := c.transport.SubmitMonitor(ch, reqType, ch.ElementCount(), mask, tok); status != models.ECANormal {
		c.monitors.Remove(sub.ID())
		return nil, errors.Wrapf(status.Err("monitor"), "monitor %q", name)
	}
	c.lc.Debug("monitor established", "pv", name, "id", sub.ID())
	return sub, nil
}

// Unmonitor cancels a subscription by ID and closes its event channel.
func (c *Client) Unmonitor(id string) error {
	tok, ok := c.monitors.Remove(id)
	if !ok {
		return errors.Errorf("unknown subscription %q", id)
	}
	if status := c.transport.ClearMonitor(tok); status != models.ECANormal {
		return status.Err("unmonitor")
	}
	return nil
}

// StartJanitor schedules the periodic sweep that reclaims operations
// that were submitted but never awaited.
func (c *Client) StartJanitor(every, maxAge time.Duration) {
	async.StartJanitor(c.lc, c.bridge, every, maxAge)
}

// Close tears down all live subscriptions. One-shot operations still in
// flight resolve or time out on their own.
func (c *Client) Close() {
	for _, tok := range c.monitors.Tokens() {
		c.transport.ClearMonitor(tok)
	}
	for _, sub := range c.monitors.Subscriptions() {
		c.monitors.Remove(sub.ID())
	}
	c.lc.Info("client closed", "pending", c.bridge.PendingCount())
}
