// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package dbr

import (
	"testing"

	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill builds a deterministic canonical payload for a native type.
func fill(native FieldType, count int) interface{} {
	switch native {
	case String:
		if count == 1 {
			return "value-0"
		}
		out := make([]string, count)
		for i := range out {
			out[i] = "value-" + string(rune('0'+i%10))
		}
		return out
	case Int:
		if count == 1 {
			return int16(-7)
		}
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(i) - 7
		}
		return out
	case Float:
		if count == 1 {
			return float32(1.5)
		}
		out := make([]float32, count)
		for i := range out {
			out[i] = float32(i) + 0.5
		}
		return out
	case Enum:
		if count == 1 {
			return uint16(2)
		}
		out := make([]uint16, count)
		for i := range out {
			out[i] = uint16(i % 3)
		}
		return out
	case Char:
		if count == 1 {
			return byte(65)
		}
		out := make([]byte, count)
		for i := range out {
			out[i] = byte(65 + i%26)
		}
		return out
	case Long:
		if count == 1 {
			return int32(-100000)
		}
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(i)*1000 - 100000
		}
		return out
	case Double:
		if count == 1 {
			return float64(3.25)
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = float64(i) * 0.25
		}
		return out
	}
	return nil
}

func metaFor(t FieldType) *Metadata {
	l, _ := LayoutFor(t)
	if !l.HasMeta {
		return nil
	}
	m := &Metadata{Status: 3, Severity: 1}
	if l.HasTime {
		m.Seconds = 812345678
		m.Nanoseconds = 123456000
	}
	if l.PrecisionAt >= 0 {
		m.HasPrecision = true
		m.Precision = 4
	}
	if l.UnitsAt >= 0 {
		m.Units = "mA"
	}
	if l.LimitsAt >= 0 {
		m.Limits = &Limits{
			DispHigh: 100, DispLow: -100,
			AlarmHigh: 90, WarnHigh: 80, WarnLow: -80, AlarmLow: -90,
			CtrlHigh: 50, CtrlLow: -50,
		}
	}
	if l.EnumAt >= 0 {
		m.EnumStrings = []string{"Off", "On", "Fault"}
	}
	return m
}

// Every catalog member should round-trip deterministic fill values through
// its byte layout.
func TestDecodeRoundTripAllTypes(t *testing.T) {
	all := []FieldType{
		String, Int, Float, Enum, Char, Long, Double,
		StsString, StsInt, StsFloat, StsEnum, StsChar, StsLong, StsDouble,
		TimeString, TimeInt, TimeFloat, TimeEnum, TimeChar, TimeLong, TimeDouble,
		CtrlString, CtrlInt, CtrlFloat, CtrlEnum, CtrlChar, CtrlLong, CtrlDouble,
	}
	for _, ft := range all {
		for _, count := range []int{1, 5} {
			in := &Value{
				Type:  ft,
				Count: count,
				Meta:  metaFor(ft),
				Data:  fill(ft.Native(), count),
			}
			raw, err := EncodeValue(in)
			require.NoError(t, err, "encode %s count=%d", ft, count)
			require.Equal(t, RequiredLen(ft, count), len(raw))

			out, err := Decode(raw, ft, count)
			require.NoError(t, err, "decode %s count=%d", ft, count)
			assert.Equal(t, in.Data, out.Data, "%s count=%d payload", ft, count)

			l, _ := LayoutFor(ft)
			if !l.HasMeta {
				assert.Nil(t, out.Meta)
				continue
			}
			require.NotNil(t, out.Meta)
			assert.Equal(t, int16(3), out.Meta.Status)
			assert.Equal(t, int16(1), out.Meta.Severity)
			if l.HasTime {
				assert.Equal(t, uint32(812345678), out.Meta.Seconds)
				assert.Equal(t, uint32(123456000), out.Meta.Nanoseconds)
			}
			if l.PrecisionAt >= 0 {
				assert.True(t, out.Meta.HasPrecision)
				assert.Equal(t, int16(4), out.Meta.Precision)
			}
			if l.UnitsAt >= 0 {
				assert.Equal(t, "mA", out.Meta.Units)
			}
			if l.LimitsAt >= 0 {
				require.NotNil(t, out.Meta.Limits)
				assert.Equal(t, float64(100), out.Meta.Limits.DispHigh)
				assert.Equal(t, float64(-90), out.Meta.Limits.AlarmLow)
				assert.Equal(t, float64(-50), out.Meta.Limits.CtrlLow)
			}
			if l.EnumAt >= 0 {
				assert.Equal(t, []string{"Off", "On", "Fault"}, out.Meta.EnumStrings)
			}
		}
	}
}

func TestDecodeScalarVsSequence(t *testing.T) {
	raw, err := EncodeValue(&Value{Type: Double, Count: 1, Data: float64(2.5)})
	require.NoError(t, err)
	v, err := Decode(raw, Double, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(2.5), v.Data) // scalar, not a 1-element slice

	raw, err = EncodeValue(&Value{Type: Double, Count: 3, Data: []float64{1, 2, 3}})
	require.NoError(t, err)
	v, err = Decode(raw, Double, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v.Data)
}

func TestDecodeUnknownTypeFails(t *testing.T) {
	buf := make([]byte, 1024)
	for _, ft := range []FieldType{21, 27, 35, -1, 99} {
		_, err := Decode(buf, ft, 1)
		require.Error(t, err, "ftype %d", ft)
		assert.True(t, caerrors.IsMalformed(err))
	}
}

func TestDecodeShortBufferFails(t *testing.T) {
	// One byte short of the computed requirement, for a spread of
	// variants; must error, never slice out of range.
	for _, ft := range []FieldType{Double, StsChar, TimeDouble, CtrlEnum, CtrlDouble, String} {
		for _, count := range []int{1, 4} {
			need := RequiredLen(ft, count)
			_, err := Decode(make([]byte, need-1), ft, count)
			require.Error(t, err, "%s count=%d", ft, count)
			assert.True(t, caerrors.IsMalformed(err))

			_, err = Decode(nil, ft, count)
			require.Error(t, err)
			assert.True(t, caerrors.IsMalformed(err))
		}
	}
}

func TestDecodeBadCount(t *testing.T) {
	_, err := Decode(make([]byte, 64), Double, 0)
	assert.True(t, caerrors.IsMalformed(err))
	_, err = Decode(make([]byte, 64), Double, -2)
	assert.True(t, caerrors.IsMalformed(err))
}

func TestTimestampConversion(t *testing.T) {
	m := &Metadata{Seconds: 0, Nanoseconds: 0}
	assert.Equal(t, 631152000.0, m.UnixTimestamp())

	// Nanoseconds are truncated to microsecond resolution.
	m = &Metadata{Seconds: 1, Nanoseconds: 500000000}
	assert.Equal(t, 631152001.5, m.UnixTimestamp())

	m = &Metadata{Seconds: 1, Nanoseconds: 1999}
	assert.Equal(t, 631152001.000001, m.UnixTimestamp())

	m = &Metadata{Seconds: 10, Nanoseconds: 250000000}
	ts := m.Time()
	assert.Equal(t, int64(631152010), ts.Unix())
	assert.Equal(t, 250000000, ts.Nanosecond())
}

func TestEnumStringCountClamped(t *testing.T) {
	in := &Value{
		Type:  CtrlEnum,
		Count: 1,
		Meta:  &Metadata{EnumStrings: []string{"A", "B"}},
		Data:  uint16(1),
	}
	raw, err := EncodeValue(in)
	require.NoError(t, err)

	// Corrupt the reported count beyond the table capacity; decode must
	// clamp instead of reading past the table.
	byteOrder.PutUint16(raw[4:], 999)
	v, err := Decode(raw, CtrlEnum, 1)
	require.NoError(t, err)
	assert.Len(t, v.Meta.EnumStrings, MaxEnumStates)

	// A negative count reads as zero strings.
	byteOrder.PutUint16(raw[4:], 0xFFFE) // -2 as int16
	v, err = Decode(raw, CtrlEnum, 1)
	require.NoError(t, err)
	assert.Empty(t, v.Meta.EnumStrings)
}

func TestValueOffsetsMatchReferenceTable(t *testing.T) {
	// Spot checks against the reference dbr_value_offset entries that
	// include alignment padding.
	cases := map[FieldType]int{
		StsChar:    5,
		StsDouble:  8,
		TimeInt:    14,
		TimeChar:   15,
		TimeDouble: 16,
		CtrlInt:    28,
		CtrlChar:   21,
		CtrlLong:   44,
		CtrlFloat:  48,
		CtrlDouble: 80,
		CtrlEnum:   422,
		CtrlString: 12, // time-string shape
	}
	for ft, want := range cases {
		l, ok := LayoutFor(ft)
		require.True(t, ok)
		assert.Equal(t, want, l.ValueOffset, "value offset of %s", ft)
	}
}
