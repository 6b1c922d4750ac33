// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package caerrors defines the error taxonomy shared by the Channel Access
// client core. Callers classify failures with errors.Is/errors.As against
// the sentinels and types below rather than by matching message text.
package caerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra payload.
var (
	// ErrNotConnected means the channel never reached the connected state.
	ErrNotConnected = errors.New("channel not connected")

	// ErrTimeout means the deadline elapsed before any completion arrived.
	// The pending operation has been cancelled and its token released.
	ErrTimeout = errors.New("operation timed out")
)

// MalformedResponseError reports a structurally invalid response buffer:
// an unrecognized field type tag or a buffer shorter than its declared
// layout requires. These are never swallowed; they propagate to the
// awaiting caller.
type MalformedResponseError struct {
	FieldType int16
	Count     int
	Reason    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (ftype=%d count=%d): %s", e.FieldType, e.Count, e.Reason)
}

// TransportError carries a non-normal native status code through to the
// caller with the originating code preserved.
type TransportError struct {
	Code int32
	Op   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport status %d", e.Op, e.Code)
}

// TypeMismatchError reports a request that cannot apply to the channel's
// native type, e.g. precision of a non-floating-point channel or enum
// strings of a non-ENUM channel.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s channel, got %s", e.Want, e.Got)
}

// IsTimeout reports whether err is, or wraps, a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotConnected reports whether err is, or wraps, a connection failure.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsMalformed reports whether err is, or wraps, a malformed-response error.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// IsTypeMismatch reports whether err is, or wraps, a type mismatch.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}
