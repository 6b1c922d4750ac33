// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package caerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := errors.Wrap(ErrTimeout, "get PV:TEMP")
	assert.True(t, IsTimeout(err))
	assert.False(t, IsNotConnected(err))

	err = errors.Wrap(ErrNotConnected, "resolve PV:TEMP")
	assert.True(t, IsNotConnected(err))
	assert.False(t, IsTimeout(err))
}

func TestTypedErrors(t *testing.T) {
	me := &MalformedResponseError{FieldType: 99, Count: 4, Reason: "unknown field type"}
	assert.True(t, IsMalformed(errors.Wrap(me, "decode")))
	assert.Contains(t, me.Error(), "ftype=99")

	te := &TypeMismatchError{Want: "ENUM", Got: "DOUBLE"}
	assert.True(t, IsTypeMismatch(errors.Wrap(te, "enum strings")))
	assert.False(t, IsTypeMismatch(me))

	tr := &TransportError{Code: 410, Op: "get"}
	assert.Contains(t, tr.Error(), "410")
}
