// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Info produces a human-readable report of a PV: identity, current
// value, alarm state, timestamp, and whatever control metadata its type
// carries.
func (c *Client) Info(ctx context.Context, name string) (string, error) {
	ch, err := c.Connect(ctx, name)
	if err != nil {
		return "", err
	}

	tv, err := c.GetTimeVars(ctx, name)
	if err != nil {
		return "", err
	}
	cv, err := c.GetCtrlVars(ctx, name)
	if err != nil {
		return "", err
	}

	rows := [][]string{
		{"pv", name},
		{"type", ch.FieldType().String()},
		{"count", strconv.Itoa(ch.ElementCount())},
		{"connected", strconv.FormatBool(ch.Connected())},
		{"value", c.AsString(cv)},
		{"status", strconv.Itoa(int(tv.Meta.Status))},
		{"severity", strconv.Itoa(int(tv.Meta.Severity))},
	}
	if tv.Meta.HasTimestamp {
		rows = append(rows, []string{"timestamp", tv.Meta.Time().Format(time.RFC3339Nano)})
	}
	if cv.Meta.Units != "" {
		rows = append(rows, []string{"units", cv.Meta.Units})
	}
	if cv.Meta.HasPrecision {
		rows = append(rows, []string{"precision", strconv.Itoa(int(cv.Meta.Precision))})
	}
	if lim := cv.Meta.Limits; lim != nil {
		rows = append(rows,
			[]string{"display limits", limitPair(lim.DispLow, lim.DispHigh)},
			[]string{"alarm limits", limitPair(lim.AlarmLow, lim.AlarmHigh)},
			[]string{"warning limits", limitPair(lim.WarnLow, lim.WarnHigh)},
			[]string{"control limits", limitPair(lim.CtrlLow, lim.CtrlHigh)},
		)
	}
	if len(cv.Meta.EnumStrings) > 0 {
		rows = append(rows, []string{"enum states", strings.Join(cv.Meta.EnumStrings, ", ")})
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return buf.String(), nil
}

func limitPair(lo, hi float64) string {
	return fmt.Sprintf("%g .. %g", lo, hi)
}
