// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicsgo/caclient/internal/cache"
	"github.com/epicsgo/caclient/internal/simulator"
	"github.com/epicsgo/caclient/pkg/dbr"
	"github.com/epicsgo/caclient/pkg/models"
)

func TestGetStringCharArrayAsText(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.GetString(context.Background(), "msg:text")
	require.NoError(t, err)
	assert.Equal(t, "Hi", s)
}

func TestGetStringEnumUsesStateTable(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.GetString(context.Background(), "mtr:state")
	require.NoError(t, err)
	assert.Equal(t, "Moving", s)
}

// ctrlFailTransport refuses Control-variant reads, as a server that
// denies metadata access would.
type ctrlFailTransport struct {
	*simulator.Simulator
}

func (tr *ctrlFailTransport) SubmitGet(ch models.Channel, fieldType dbr.FieldType, count int, token models.Token) models.StatusCode {
	if fieldType.Family() == dbr.FamilyControl {
		return models.ECABadChid
	}
	return tr.Simulator.SubmitGet(ch, fieldType, count, token)
}

func TestGetStringEnumDegradesWhenStateTableUnavailable(t *testing.T) {
	sim, err := simulator.New(nil, "./test/pvs.yaml")
	require.NoError(t, err)
	c := New(&ctrlFailTransport{Simulator: sim}, nil, nil, nil)
	for _, ch := range cache.Channels().All() {
		cache.Channels().Remove(ch.Name())
	}

	s, err := c.GetString(context.Background(), "mtr:state")
	require.NoError(t, err)
	assert.Equal(t, "1", s)
}

func TestGetStringNumeric(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	s, err := c.GetString(ctx, "count:events")
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	s, err = c.GetString(ctx, "dev:name")
	require.NoError(t, err)
	assert.Equal(t, "ion-pump-03", s)
}

func TestGetStringArrayPlaceholder(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.GetString(context.Background(), "wave:form")
	require.NoError(t, err)
	assert.Equal(t, "<array count=5, type=TIME_FLOAT>", s)
}

func TestAsStringEnumOutOfRangeFallsBack(t *testing.T) {
	c, _ := newTestClient(t)

	v := &dbr.Value{
		Type:  dbr.CtrlEnum,
		Count: 1,
		Meta:  &dbr.Metadata{EnumStrings: []string{"Off", "On"}},
		Data:  uint16(7),
	}
	assert.Equal(t, "7", c.AsString(v))
}

func TestAsStringCharAboveThresholdSummarized(t *testing.T) {
	c, _ := newTestClient(t)
	c.charTextThreshold = 3

	v := &dbr.Value{
		Type:  dbr.TimeChar,
		Count: 4,
		Meta:  &dbr.Metadata{},
		Data:  []byte{1, 2, 3, 4},
	}
	assert.Equal(t, "<array count=4, type=TIME_CHAR>", c.AsString(v))
}

func TestAsStringFloatPrecision(t *testing.T) {
	c, _ := newTestClient(t)

	v := &dbr.Value{
		Type:  dbr.CtrlDouble,
		Count: 1,
		Meta:  &dbr.Metadata{HasPrecision: true, Precision: 3},
		Data:  1.5,
	}
	assert.Equal(t, "1.500", c.AsString(v))

	v.Meta.HasPrecision = false
	assert.Equal(t, "1.5", c.AsString(v))
}
