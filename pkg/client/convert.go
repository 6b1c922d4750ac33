// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/epicsgo/caclient/pkg/dbr"
)

// AsString renders a decoded value as text.
//
// CHAR arrays up to the configured threshold are treated as NUL-padded
// byte strings. ENUM scalars resolve through the state table when the
// value carries one; an index outside the table degrades to its numeric
// form. Other arrays are summarized as a placeholder since rendering a
// megasample waveform element by element helps nobody.
func (c *Client) AsString(v *dbr.Value) string {
	if v == nil {
		return ""
	}
	native := v.Type.Native()

	if native == dbr.Char {
		if b, ok := charBytes(v.Data); ok && len(b) <= c.charTextThreshold {
			return string(bytes.TrimRight(b, "\x00"))
		}
	}

	if v.Count > 1 {
		return fmt.Sprintf("<array count=%d, type=%s>", v.Count, v.Type)
	}

	switch d := v.Data.(type) {
	case string:
		return d
	case uint16:
		if native == dbr.Enum {
			return c.enumString(v, int(d))
		}
		return strconv.FormatUint(uint64(d), 10)
	case int16:
		return strconv.FormatInt(int64(d), 10)
	case int32:
		return strconv.FormatInt(int64(d), 10)
	case byte:
		return strconv.FormatInt(int64(d), 10)
	case float32:
		return formatFloat(float64(d), v)
	case float64:
		return formatFloat(d, v)
	}
	return fmt.Sprint(v.Data)
}

func (c *Client) enumString(v *dbr.Value, idx int) string {
	if v.Meta != nil && idx >= 0 && idx < len(v.Meta.EnumStrings) {
		return v.Meta.EnumStrings[idx]
	}
	c.lc.Warn("enum index outside state table", "index", idx)
	return strconv.Itoa(idx)
}

// formatFloat honors the PV's display precision when the metadata
// carries one.
func formatFloat(f float64, v *dbr.Value) string {
	if v.Meta != nil && v.Meta.HasPrecision && v.Meta.Precision > 0 {
		return strconv.FormatFloat(f, 'f', int(v.Meta.Precision), 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func charBytes(data interface{}) ([]byte, bool) {
	switch d := data.(type) {
	case []byte:
		return d, true
	case byte:
		return []byte{d}, true
	}
	return nil, false
}
