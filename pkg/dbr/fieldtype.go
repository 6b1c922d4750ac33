// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package dbr implements the EPICS Database Record (DBR) type system: the
// catalog of field type tags carried on the Channel Access wire, the
// promotion rules between type families, the byte layouts of the composite
// response structs, and the decoding of raw response buffers into typed
// values. Tag values and layouts follow db_access.h.
package dbr

// FieldType is the numeric DBR tag identifying the wire representation of a
// value: a native type, optionally extended with status, time, or control
// metadata.
type FieldType int16

// Native field types.
const (
	String FieldType = 0
	Int    FieldType = 1
	Short  FieldType = 1 // alias of Int, as on the wire
	Float  FieldType = 2
	Enum   FieldType = 3
	Char   FieldType = 4
	Long   FieldType = 5
	Double FieldType = 6
)

// Status variants: native value plus status/severity.
const (
	StsString FieldType = 7
	StsInt    FieldType = 8
	StsShort  FieldType = 8
	StsFloat  FieldType = 9
	StsEnum   FieldType = 10
	StsChar   FieldType = 11
	StsLong   FieldType = 12
	StsDouble FieldType = 13
)

// Time variants: status/severity plus an EPICS timestamp.
const (
	TimeString FieldType = 14
	TimeInt    FieldType = 15
	TimeShort  FieldType = 15
	TimeFloat  FieldType = 16
	TimeEnum   FieldType = 17
	TimeChar   FieldType = 18
	TimeLong   FieldType = 19
	TimeDouble FieldType = 20
)

// Control variants: status/severity plus display, alarm and control limits,
// units or precision, or the enum-string table. Note there is no true
// control layout for STRING on the wire; Promote collapses it to TimeString.
const (
	CtrlString FieldType = 28
	CtrlInt    FieldType = 29
	CtrlShort  FieldType = 29
	CtrlFloat  FieldType = 30
	CtrlEnum   FieldType = 31
	CtrlChar   FieldType = 32
	CtrlLong   FieldType = 33
	CtrlDouble FieldType = 34
)

// Invalid is returned for tags outside the catalog.
const Invalid FieldType = -1

// Family groups FieldTypes by the metadata they carry.
type Family int

const (
	FamilyInvalid Family = iota
	FamilyNative
	FamilyStatus
	FamilyTime
	FamilyControl
)

func (f Family) String() string {
	switch f {
	case FamilyNative:
		return "native"
	case FamilyStatus:
		return "status"
	case FamilyTime:
		return "time"
	case FamilyControl:
		return "control"
	}
	return "invalid"
}

// Families are closed sets: tags 21-27 (the GR variants, which this client
// never requests) and anything outside 0-34 are not recognized.
func (t FieldType) Family() Family {
	switch {
	case t >= String && t <= Double:
		return FamilyNative
	case t >= StsString && t <= StsDouble:
		return FamilyStatus
	case t >= TimeString && t <= TimeDouble:
		return FamilyTime
	case t >= CtrlString && t <= CtrlDouble:
		return FamilyControl
	}
	return FamilyInvalid
}

// IsValid reports whether t is a member of the catalog.
func (t FieldType) IsValid() bool {
	return t.Family() != FamilyInvalid
}

// Native maps any catalog member to its underlying native type
// (StsDouble -> Double, TimeEnum -> Enum, ...). Returns Invalid for
// unrecognized tags.
func (t FieldType) Native() FieldType {
	switch t.Family() {
	case FamilyNative:
		return t
	case FamilyStatus:
		return t - StsString
	case FamilyTime:
		return t - TimeString
	case FamilyControl:
		return t - CtrlString
	}
	return Invalid
}

// Promote converts t into the requested family's variant of its native
// type. Promotion always goes through the native type first, so promoting
// an already-promoted tag re-bases rather than composes. Requesting the
// control variant of STRING yields TimeString: the wire format defines no
// control-string struct.
func Promote(t FieldType, fam Family) FieldType {
	n := t.Native()
	if n == Invalid {
		return Invalid
	}
	var p FieldType
	switch fam {
	case FamilyNative:
		return n
	case FamilyStatus:
		p = n + StsString
	case FamilyTime:
		p = n + TimeString
	case FamilyControl:
		p = n + CtrlString
	default:
		return Invalid
	}
	if p == CtrlString {
		return TimeString
	}
	return p
}

// IsEnum reports whether t's native type is ENUM.
func (t FieldType) IsEnum() bool { return t.Native() == Enum }

// IsChar reports whether t's native type is CHAR.
func (t FieldType) IsChar() bool { return t.Native() == Char }

// IsFloating reports whether t's native type is FLOAT or DOUBLE. Precision
// is only defined for floating natives.
func (t FieldType) IsFloating() bool {
	n := t.Native()
	return n == Float || n == Double
}

var nativeNames = map[FieldType]string{
	String: "STRING",
	Int:    "INT",
	Float:  "FLOAT",
	Enum:   "ENUM",
	Char:   "CHAR",
	Long:   "LONG",
	Double: "DOUBLE",
}

// String renders the canonical tag name, e.g. "TIME_DOUBLE".
func (t FieldType) String() string {
	n := t.Native()
	base, ok := nativeNames[n]
	if !ok {
		return "INVALID"
	}
	switch t.Family() {
	case FamilyNative:
		return base
	case FamilyStatus:
		return "STS_" + base
	case FamilyTime:
		return "TIME_" + base
	case FamilyControl:
		return "CTRL_" + base
	}
	return "INVALID"
}
