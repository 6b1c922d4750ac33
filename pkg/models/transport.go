// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package models defines the boundary between the client core and the
// Channel Access transport layer. The transport (search, beacons, virtual
// circuits, access control) lives behind the Transport interface; it
// reports operation outcomes by invoking the registered CompletionSink
// from its own event-delivery path.
package models

import (
	"context"

	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/dbr"
)

// Token identifies one in-flight operation. The core mints a fresh token
// per submission and hands it to the transport, whose completion callback
// uses it to locate the pending operation.
type Token uint64

// StatusCode is a native CA status code returned by submissions and
// carried on completions.
type StatusCode int32

// The closed set of native status codes crossing the boundary.
const (
	ECANormal     StatusCode = 1
	ECATimeout    StatusCode = 80
	ECAIODone     StatusCode = 339
	ECABadChid    StatusCode = 410
	ECAIsAttached StatusCode = 424
)

// Err translates a native status code into the client error taxonomy.
// The success codes ECANormal and ECAIODone yield nil.
func (s StatusCode) Err(op string) error {
	switch s {
	case ECANormal, ECAIODone:
		return nil
	case ECATimeout:
		return caerrors.ErrTimeout
	case ECABadChid:
		return caerrors.ErrNotConnected
	default:
		return &caerrors.TransportError{Code: int32(s), Op: op}
	}
}

// EventMask selects which channel events a monitor subscription receives.
type EventMask int

const (
	DBEValue    EventMask = 1
	DBELog      EventMask = 2
	DBEAlarm    EventMask = 4
	DBEProperty EventMask = 8
)

// Completion is the payload the transport delivers when a previously
// submitted operation finishes. Raw is only valid for the duration of the
// sink invocation; implementations that retain it must copy.
type Completion struct {
	Token     Token
	Status    StatusCode
	FieldType dbr.FieldType
	Count     int
	Raw       []byte
}

// CompletionSink receives completions on the transport's event-delivery
// path. Implementations must be safe for concurrent use and must not
// block; a completion for an unknown token is discarded silently since
// callbacks may race timeouts.
type CompletionSink interface {
	Complete(c Completion)
}

// Channel is a client-side handle for one process variable, resolved and
// owned by the transport.
type Channel interface {
	// Name returns the process variable name the channel addresses.
	Name() string

	// FieldType returns the channel's negotiated native field type.
	FieldType() dbr.FieldType

	// ElementCount returns the channel's negotiated element count.
	ElementCount() int

	// Connected reports whether the channel currently has a circuit.
	Connected() bool
}

// Transport is the contract the connection layer exposes to the client
// core. Submit calls are fire-and-forget: a non-normal return means the
// submission failed synchronously and no completion will follow; a normal
// return means exactly one completion (or, for monitors, a stream of them)
// will be delivered to the sink with the given token.
type Transport interface {
	// ResolveChannel resolves a PV name to a channel handle, blocking
	// until connected or ctx expires.
	ResolveChannel(ctx context.Context, name string) (Channel, error)

	// SubmitGet requests count elements rendered as fieldType.
	SubmitGet(ch Channel, fieldType dbr.FieldType, count int, token Token) StatusCode

	// SubmitPut writes count native-typed elements from data.
	SubmitPut(ch Channel, fieldType dbr.FieldType, count int, data []byte, token Token) StatusCode

	// SubmitMonitor subscribes to channel events matching mask. Each
	// event arrives as a completion carrying the subscription's token.
	SubmitMonitor(ch Channel, fieldType dbr.FieldType, count int, mask EventMask, token Token) StatusCode

	// ClearMonitor cancels a subscription; no further completions are
	// delivered for its token once it returns.
	ClearMonitor(token Token) StatusCode
}
