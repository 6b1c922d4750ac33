// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package dbr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/epicsgo/caclient/pkg/caerrors"
)

// byteOrder is the byte order of raw buffers at the transport boundary.
// The reference library hands host-order C structs to its callbacks; this
// client fixes little-endian as the contract so encoder and decoder agree.
var byteOrder = binary.LittleEndian

// Limits holds the eight control/display limit fields of a Control variant,
// in the wire order: display high/low, alarm high, warning high/low, alarm
// low, control high/low. Values are widened to float64 regardless of the
// native element type.
type Limits struct {
	DispHigh  float64
	DispLow   float64
	AlarmHigh float64
	WarnHigh  float64
	WarnLow   float64
	AlarmLow  float64
	CtrlHigh  float64
	CtrlLow   float64
}

// Metadata is the composite prefix of a Status, Time or Control response.
type Metadata struct {
	Status   int16
	Severity int16

	// Time variants.
	HasTimestamp bool
	Seconds      uint32 // seconds since the EPICS epoch
	Nanoseconds  uint32

	// Control variants.
	Units        string
	HasPrecision bool
	Precision    int16
	Limits       *Limits
	EnumStrings  []string
}

// UnixTimestamp converts the EPICS timestamp to Unix seconds. Fractional
// precision is microseconds: nanoseconds are truncated, not rounded.
func (m *Metadata) UnixTimestamp() float64 {
	micros := m.Nanoseconds / 1000
	return float64(EpicsToUnixEpoch) + float64(m.Seconds) + float64(micros)*1e-6
}

// Time converts the EPICS timestamp to a time.Time in UTC, at microsecond
// resolution.
func (m *Metadata) Time() time.Time {
	micros := int64(m.Nanoseconds / 1000)
	return time.Unix(EpicsToUnixEpoch+int64(m.Seconds), micros*1000).UTC()
}

// Value is a decoded response buffer. Data holds the native payload:
// a scalar for count==1 (int16, float32, uint16, byte, int32, float64 or
// string by native type), or the corresponding slice for count>1. Meta is
// nil for pure native responses.
//
// A Value is ephemeral: it belongs to the completion that produced it and
// is not retained by the decoding layer.
type Value struct {
	Type  FieldType
	Count int
	Meta  *Metadata
	Data  interface{}
}

func malformed(t FieldType, count int, format string, args ...interface{}) error {
	return &caerrors.MalformedResponseError{
		FieldType: int16(t),
		Count:     count,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// Decode interprets a raw response buffer tagged with field type t and
// element count. The buffer must be at least RequiredLen(t, count) bytes;
// shorter buffers and unrecognized tags fail with a MalformedResponseError
// and never panic.
func Decode(raw []byte, t FieldType, count int) (*Value, error) {
	l, ok := LayoutFor(t)
	if !ok {
		return nil, malformed(t, count, "unrecognized field type")
	}
	if count < 1 {
		return nil, malformed(t, count, "element count must be positive")
	}
	need := l.ValueOffset + count*l.ElemSize
	if len(raw) < need {
		return nil, malformed(t, count, "buffer too short: have %d bytes, need %d", len(raw), need)
	}

	v := &Value{Type: t, Count: count}
	if l.HasMeta {
		v.Meta = decodeMeta(raw, l)
	}
	v.Data = decodeElems(raw[l.ValueOffset:], t.Native(), count)
	return v, nil
}

func decodeMeta(raw []byte, l Layout) *Metadata {
	m := &Metadata{
		Status:   int16(byteOrder.Uint16(raw[0:])),
		Severity: int16(byteOrder.Uint16(raw[2:])),
	}
	if l.HasTime {
		m.HasTimestamp = true
		m.Seconds = byteOrder.Uint32(raw[4:])
		m.Nanoseconds = byteOrder.Uint32(raw[8:])
	}
	if l.PrecisionAt >= 0 {
		m.HasPrecision = true
		m.Precision = int16(byteOrder.Uint16(raw[l.PrecisionAt:]))
	}
	if l.UnitsAt >= 0 {
		m.Units = cString(raw[l.UnitsAt : l.UnitsAt+MaxUnitsSize])
	}
	if l.LimitsAt >= 0 {
		m.Limits = decodeLimits(raw[l.LimitsAt:], l.LimitElem)
	}
	if l.EnumAt >= 0 {
		n := int(int16(byteOrder.Uint16(raw[l.EnumAt:])))
		if n < 0 {
			n = 0
		}
		if n > MaxEnumStates {
			n = MaxEnumStates
		}
		strs := make([]string, n)
		base := l.EnumAt + 2
		for i := 0; i < n; i++ {
			off := base + i*MaxEnumStringSize
			strs[i] = cString(raw[off : off+MaxEnumStringSize])
		}
		m.EnumStrings = strs
	}
	return m
}

func decodeLimits(raw []byte, elem FieldType) *Limits {
	read := func(i int) float64 {
		switch elem {
		case Int:
			return float64(int16(byteOrder.Uint16(raw[i*2:])))
		case Char:
			return float64(int8(raw[i]))
		case Long:
			return float64(int32(byteOrder.Uint32(raw[i*4:])))
		case Float:
			return float64(math.Float32frombits(byteOrder.Uint32(raw[i*4:])))
		case Double:
			return math.Float64frombits(byteOrder.Uint64(raw[i*8:]))
		}
		return 0
	}
	return &Limits{
		DispHigh:  read(0),
		DispLow:   read(1),
		AlarmHigh: read(2),
		WarnHigh:  read(3),
		WarnLow:   read(4),
		AlarmLow:  read(5),
		CtrlHigh:  read(6),
		CtrlLow:   read(7),
	}
}

// decodeElems extracts count native elements. A single element of a scalar
// native type yields the scalar itself, not a one-element slice.
func decodeElems(raw []byte, native FieldType, count int) interface{} {
	switch native {
	case String:
		if count == 1 {
			return cString(raw[:MaxStringSize])
		}
		out := make([]string, count)
		for i := range out {
			out[i] = cString(raw[i*MaxStringSize : (i+1)*MaxStringSize])
		}
		return out
	case Int:
		if count == 1 {
			return int16(byteOrder.Uint16(raw))
		}
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(byteOrder.Uint16(raw[i*2:]))
		}
		return out
	case Float:
		if count == 1 {
			return math.Float32frombits(byteOrder.Uint32(raw))
		}
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(byteOrder.Uint32(raw[i*4:]))
		}
		return out
	case Enum:
		if count == 1 {
			return byteOrder.Uint16(raw)
		}
		out := make([]uint16, count)
		for i := range out {
			out[i] = byteOrder.Uint16(raw[i*2:])
		}
		return out
	case Char:
		if count == 1 {
			return raw[0]
		}
		out := make([]byte, count)
		copy(out, raw[:count])
		return out
	case Long:
		if count == 1 {
			return int32(byteOrder.Uint32(raw))
		}
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(byteOrder.Uint32(raw[i*4:]))
		}
		return out
	case Double:
		if count == 1 {
			return math.Float64frombits(byteOrder.Uint64(raw))
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(byteOrder.Uint64(raw[i*8:]))
		}
		return out
	}
	return nil
}

// cString trims a fixed-width field at its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
