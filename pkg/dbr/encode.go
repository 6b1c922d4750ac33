// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package dbr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// EncodeValue renders v into the wire layout of v.Type: the family's
// metadata prefix, padding included, followed by v.Count native elements.
// v.Data must hold the canonical decoded representation (the scalar for
// count 1, the typed slice otherwise). The inverse of Decode.
func EncodeValue(v *Value) ([]byte, error) {
	l, ok := LayoutFor(v.Type)
	if !ok {
		return nil, fmt.Errorf("encode: unrecognized field type %d", int16(v.Type))
	}
	if v.Count < 1 {
		return nil, fmt.Errorf("encode: element count must be positive, got %d", v.Count)
	}
	raw := make([]byte, l.ValueOffset+v.Count*l.ElemSize)

	if l.HasMeta {
		m := v.Meta
		if m == nil {
			m = &Metadata{}
		}
		encodeMeta(raw, l, m)
	}
	if err := encodeElems(raw[l.ValueOffset:], v.Type.Native(), v.Count, v.Data); err != nil {
		return nil, errors.Wrapf(err, "encode %s", v.Type)
	}
	return raw, nil
}

func encodeMeta(raw []byte, l Layout, m *Metadata) {
	byteOrder.PutUint16(raw[0:], uint16(m.Status))
	byteOrder.PutUint16(raw[2:], uint16(m.Severity))
	if l.HasTime {
		byteOrder.PutUint32(raw[4:], m.Seconds)
		byteOrder.PutUint32(raw[8:], m.Nanoseconds)
	}
	if l.PrecisionAt >= 0 {
		byteOrder.PutUint16(raw[l.PrecisionAt:], uint16(m.Precision))
	}
	if l.UnitsAt >= 0 {
		copyPadded(raw[l.UnitsAt:l.UnitsAt+MaxUnitsSize], m.Units)
	}
	if l.LimitsAt >= 0 {
		lim := m.Limits
		if lim == nil {
			lim = &Limits{}
		}
		fields := [8]float64{
			lim.DispHigh, lim.DispLow,
			lim.AlarmHigh, lim.WarnHigh, lim.WarnLow, lim.AlarmLow,
			lim.CtrlHigh, lim.CtrlLow,
		}
		for i, f := range fields {
			putLimit(raw[l.LimitsAt:], l.LimitElem, i, f)
		}
	}
	if l.EnumAt >= 0 {
		n := len(m.EnumStrings)
		if n > MaxEnumStates {
			n = MaxEnumStates
		}
		byteOrder.PutUint16(raw[l.EnumAt:], uint16(n))
		base := l.EnumAt + 2
		for i := 0; i < n; i++ {
			off := base + i*MaxEnumStringSize
			copyPadded(raw[off:off+MaxEnumStringSize], m.EnumStrings[i])
		}
	}
}

func putLimit(raw []byte, elem FieldType, i int, f float64) {
	switch elem {
	case Int:
		byteOrder.PutUint16(raw[i*2:], uint16(int16(f)))
	case Char:
		raw[i] = byte(int8(f))
	case Long:
		byteOrder.PutUint32(raw[i*4:], uint32(int32(f)))
	case Float:
		byteOrder.PutUint32(raw[i*4:], math.Float32bits(float32(f)))
	case Double:
		byteOrder.PutUint64(raw[i*8:], math.Float64bits(f))
	}
}

func encodeElems(raw []byte, native FieldType, count int, data interface{}) error {
	switch native {
	case String:
		strs, err := stringSlice(data, count)
		if err != nil {
			return err
		}
		for i, s := range strs {
			copyPadded(raw[i*MaxStringSize:(i+1)*MaxStringSize], s)
		}
		return nil
	case Char:
		b, err := byteSlice(data, count)
		if err != nil {
			return err
		}
		copy(raw, b)
		return nil
	}

	nums, err := floatSlice(data, count)
	if err != nil {
		return err
	}
	for i, f := range nums {
		switch native {
		case Int:
			byteOrder.PutUint16(raw[i*2:], uint16(int16(f)))
		case Enum:
			byteOrder.PutUint16(raw[i*2:], uint16(f))
		case Long:
			byteOrder.PutUint32(raw[i*4:], uint32(int32(f)))
		case Float:
			byteOrder.PutUint32(raw[i*4:], math.Float32bits(float32(f)))
		case Double:
			byteOrder.PutUint64(raw[i*8:], math.Float64bits(f))
		default:
			return fmt.Errorf("unsupported native type %d", int16(native))
		}
	}
	return nil
}

func stringSlice(data interface{}, count int) ([]string, error) {
	switch d := data.(type) {
	case string:
		if count != 1 {
			return nil, fmt.Errorf("scalar string for count %d", count)
		}
		return []string{d}, nil
	case []string:
		if len(d) < count {
			return nil, fmt.Errorf("have %d strings, need %d", len(d), count)
		}
		return d[:count], nil
	}
	return nil, fmt.Errorf("cannot encode %T as STRING", data)
}

func byteSlice(data interface{}, count int) ([]byte, error) {
	switch d := data.(type) {
	case byte:
		if count != 1 {
			return nil, fmt.Errorf("scalar byte for count %d", count)
		}
		return []byte{d}, nil
	case []byte:
		if len(d) < count {
			return nil, fmt.Errorf("have %d bytes, need %d", len(d), count)
		}
		return d[:count], nil
	case string:
		b := append([]byte(d), 0)
		if len(b) < count {
			b = append(b, make([]byte, count-len(b))...)
		}
		return b[:count], nil
	}
	return nil, fmt.Errorf("cannot encode %T as CHAR", data)
}

// floatSlice widens any supported numeric scalar or slice to float64s for
// the element writers. Strings put to integer natives are parsed with
// automatic base detection, matching the reference client.
func floatSlice(data interface{}, count int) ([]float64, error) {
	widen := func(x interface{}) (float64, error) {
		switch n := x.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int16:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case uint16:
			return float64(n), nil
		case byte:
			return float64(n), nil
		case string:
			i, err := strconv.ParseInt(n, 0, 64)
			if err != nil {
				return 0, fmt.Errorf("cannot parse %q as a number", n)
			}
			return float64(i), nil
		}
		return 0, fmt.Errorf("cannot encode %T as a numeric element", x)
	}

	var out []float64
	switch d := data.(type) {
	case []float64:
		out = d
	case []float32:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []int:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []int16:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []int32:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []int64:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []uint16:
		out = make([]float64, len(d))
		for i, n := range d {
			out[i] = float64(n)
		}
	case []interface{}:
		out = make([]float64, len(d))
		for i, x := range d {
			f, err := widen(x)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
	default:
		f, err := widen(data)
		if err != nil {
			return nil, err
		}
		out = []float64{f}
	}
	if len(out) < count {
		return nil, fmt.Errorf("have %d elements, need %d", len(out), count)
	}
	return out[:count], nil
}

// PrepareNative renders a caller-supplied Go value into the native element
// buffer a put submission carries, returning the element count actually
// encoded. nativeCount is the channel's negotiated element count and caps
// sequence puts. A string put to a CHAR array is encoded as its bytes plus
// a trailing NUL; a string put to an integer native is parsed with base
// detection.
func PrepareNative(native FieldType, nativeCount int, value interface{}) (int, []byte, error) {
	l, ok := LayoutFor(native)
	if !ok || native.Family() != FamilyNative {
		return 0, nil, fmt.Errorf("prepare: %d is not a native field type", int16(native))
	}
	if nativeCount < 1 {
		nativeCount = 1
	}

	count := 1
	switch d := value.(type) {
	case string:
		if native == Char {
			count = len(d) + 1 // trailing NUL
		}
	case []string:
		count = len(d)
	case []byte:
		count = len(d)
	case []float64:
		count = len(d)
	case []float32:
		count = len(d)
	case []int:
		count = len(d)
	case []int16:
		count = len(d)
	case []int32:
		count = len(d)
	case []int64:
		count = len(d)
	case []uint16:
		count = len(d)
	case []interface{}:
		count = len(d)
	}
	if count == 0 {
		return 0, nil, fmt.Errorf("prepare: empty sequence put to %s", native)
	}
	if count > nativeCount {
		count = nativeCount
	}

	raw := make([]byte, count*l.ElemSize)
	if err := encodeElems(raw, native, count, value); err != nil {
		return 0, nil, errors.Wrapf(err, "prepare %s put", native)
	}
	return count, raw, nil
}

// copyPadded writes s into a fixed-width NUL-padded field, truncating to
// leave room for the terminator.
func copyPadded(dst []byte, s string) {
	if len(s) >= len(dst) {
		s = s[:len(dst)-1]
	}
	copy(dst, s)
}
