// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package dbr

// Wire geometry constants from db_access.h.
const (
	MaxStringSize     = 40 // fixed width of a STRING element
	MaxUnitsSize      = 8  // fixed width of the units field
	MaxEnumStringSize = 26 // fixed width of one enum-string table entry
	MaxEnumStates     = 16 // capacity of the enum-string table
)

// EpicsToUnixEpoch is the offset, in seconds, between the EPICS epoch
// (1990-01-01T00:00:00Z) and the Unix epoch.
const EpicsToUnixEpoch = 631152000

// Layout describes the byte layout of one DBR variant: where the metadata
// sub-fields sit and where the native element array begins. Offsets account
// for the RISC alignment padding the C structs carry. A negative offset
// means the sub-field is absent from the variant.
type Layout struct {
	// ValueOffset is the byte offset of the first native element.
	ValueOffset int
	// ElemSize is the byte width of one native element.
	ElemSize int

	// HasMeta is set for every non-native variant; status and severity
	// are then int16 fields at offsets 0 and 2.
	HasMeta bool
	// HasTime is set for Time variants; seconds and nanoseconds are then
	// uint32 fields at offsets 4 and 8.
	HasTime bool

	PrecisionAt int // int16, Control variants of floating natives
	UnitsAt     int // MaxUnitsSize bytes, Control variants of numeric natives
	LimitsAt    int // 8 limit fields of LimitElem's width, in wire order
	LimitElem   FieldType
	EnumAt      int // int16 string count followed by the fixed-width table
}

var elemSizes = map[FieldType]int{
	String: MaxStringSize,
	Int:    2,
	Float:  4,
	Enum:   2,
	Char:   1,
	Long:   4,
	Double: 8,
}

func noMeta(native FieldType) Layout {
	return Layout{
		ValueOffset: 0,
		ElemSize:    elemSizes[native],
		PrecisionAt: -1, UnitsAt: -1, LimitsAt: -1, EnumAt: -1,
	}
}

func sts(native FieldType, valueOffset int) Layout {
	l := noMeta(native)
	l.HasMeta = true
	l.ValueOffset = valueOffset
	return l
}

func tim(native FieldType, valueOffset int) Layout {
	l := sts(native, valueOffset)
	l.HasTime = true
	return l
}

func ctrlNum(native FieldType, precisionAt, unitsAt, limitsAt, valueOffset int) Layout {
	l := sts(native, valueOffset)
	l.PrecisionAt = precisionAt
	l.UnitsAt = unitsAt
	l.LimitsAt = limitsAt
	l.LimitElem = native
	return l
}

// layouts is the static catalog of variant byte layouts. Value offsets
// match the reference library's dbr_value_offset table; in particular the
// STS_CHAR, STS_DOUBLE, TIME_SHORT, TIME_ENUM, TIME_CHAR and TIME_DOUBLE
// entries include the C structs' alignment padding.
var layouts = map[FieldType]Layout{
	String: noMeta(String),
	Int:    noMeta(Int),
	Float:  noMeta(Float),
	Enum:   noMeta(Enum),
	Char:   noMeta(Char),
	Long:   noMeta(Long),
	Double: noMeta(Double),

	StsString: sts(String, 4),
	StsInt:    sts(Int, 4),
	StsFloat:  sts(Float, 4),
	StsEnum:   sts(Enum, 4),
	StsChar:   sts(Char, 5),
	StsLong:   sts(Long, 4),
	StsDouble: sts(Double, 8),

	TimeString: tim(String, 12),
	TimeInt:    tim(Int, 14),
	TimeFloat:  tim(Float, 12),
	TimeEnum:   tim(Enum, 14),
	TimeChar:   tim(Char, 15),
	TimeLong:   tim(Long, 12),
	TimeDouble: tim(Double, 16),

	// CTRL_STRING has no wire layout of its own; responses use the
	// TIME_STRING shape (see Promote).
	CtrlString: tim(String, 12),
	CtrlInt:    ctrlNum(Int, -1, 4, 12, 28),
	CtrlFloat:  ctrlNum(Float, 4, 8, 16, 48),
	CtrlChar:   ctrlNum(Char, -1, 4, 12, 21),
	CtrlLong:   ctrlNum(Long, -1, 4, 12, 44),
	CtrlDouble: ctrlNum(Double, 4, 8, 16, 80),
	CtrlEnum: {
		ValueOffset: 4 + 2 + MaxEnumStates*MaxEnumStringSize, // 422
		ElemSize:    2,
		HasMeta:     true,
		PrecisionAt: -1, UnitsAt: -1, LimitsAt: -1,
		EnumAt: 4,
	},
}

// LayoutFor returns the byte layout for a catalog member.
func LayoutFor(t FieldType) (Layout, bool) {
	l, ok := layouts[t]
	return l, ok
}

// RequiredLen returns the minimum buffer length for count elements of t,
// or -1 if t is not a catalog member.
func RequiredLen(t FieldType, count int) int {
	l, ok := layouts[t]
	if !ok || count < 1 {
		return -1
	}
	return l.ValueOffset + count*l.ElemSize
}
