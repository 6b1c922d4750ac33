// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/dbr"
	"github.com/epicsgo/caclient/pkg/models"
)

type captureSink struct {
	ch chan models.Completion
}

func newCaptureSink() *captureSink {
	return &captureSink{ch: make(chan models.Completion, 16)}
}

func (cs *captureSink) Complete(c models.Completion) { cs.ch <- c }

func (cs *captureSink) next(t *testing.T) models.Completion {
	t.Helper()
	select {
	case c := <-cs.ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("no completion delivered")
		return models.Completion{}
	}
}

func newSim(t *testing.T) (*Simulator, *captureSink) {
	t.Helper()
	s, err := New(nil, "./test/pvs.yaml")
	require.NoError(t, err)
	sink := newCaptureSink()
	s.Attach(sink)
	return s, sink
}

func resolve(t *testing.T, s *Simulator, name string) models.Channel {
	t.Helper()
	ch, err := s.ResolveChannel(context.Background(), name)
	require.NoError(t, err)
	return ch
}

func TestResolveKnownChannel(t *testing.T) {
	s, _ := newSim(t)

	ch := resolve(t, s, "temp:water")
	assert.Equal(t, dbr.Double, ch.FieldType())
	assert.Equal(t, 1, ch.ElementCount())
	assert.True(t, ch.Connected())

	wf := resolve(t, s, "wave:form")
	assert.Equal(t, dbr.Float, wf.FieldType())
	assert.Equal(t, 5, wf.ElementCount())
}

func TestResolveUnknownChannelTimesOut(t *testing.T) {
	s, _ := newSim(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.ResolveChannel(ctx, "no:such:pv")
	require.Error(t, err)
	assert.True(t, caerrors.IsTimeout(err))
}

func TestGetDeliversCtrlRendering(t *testing.T) {
	s, sink := newSim(t)
	ch := resolve(t, s, "temp:water")

	status := s.SubmitGet(ch, dbr.CtrlDouble, 1, models.Token(1))
	require.Equal(t, models.ECANormal, status)

	c := sink.next(t)
	assert.Equal(t, models.Token(1), c.Token)

	v, err := dbr.Decode(c.Raw, c.FieldType, c.Count)
	require.NoError(t, err)
	assert.Equal(t, 21.5, v.Data)
	assert.Equal(t, "degC", v.Meta.Units)
	assert.Equal(t, int16(2), v.Meta.Precision)
	require.NotNil(t, v.Meta.Limits)
	assert.Equal(t, 100.0, v.Meta.Limits.DispHigh)
	assert.Equal(t, 5.0, v.Meta.Limits.WarnLow)
}

func TestGetEnumWithStates(t *testing.T) {
	s, sink := newSim(t)
	ch := resolve(t, s, "mtr:state")

	require.Equal(t, models.ECANormal, s.SubmitGet(ch, dbr.CtrlEnum, 1, models.Token(2)))
	c := sink.next(t)

	v, err := dbr.Decode(c.Raw, c.FieldType, c.Count)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), v.Data)
	assert.Equal(t, []string{"Stopped", "Moving", "Fault"}, v.Meta.EnumStrings)
}

func TestGetAsStringRendering(t *testing.T) {
	s, sink := newSim(t)
	ch := resolve(t, s, "count:events")

	require.Equal(t, models.ECANormal, s.SubmitGet(ch, dbr.String, 1, models.Token(3)))
	c := sink.next(t)

	v, err := dbr.Decode(c.Raw, c.FieldType, c.Count)
	require.NoError(t, err)
	assert.Equal(t, "42", v.Data)
}

func TestPutUpdatesAndAcknowledges(t *testing.T) {
	s, sink := newSim(t)
	ch := resolve(t, s, "temp:water")

	count, raw, err := dbr.PrepareNative(dbr.Double, ch.ElementCount(), 37.25)
	require.NoError(t, err)
	require.Equal(t, models.ECANormal, s.SubmitPut(ch, dbr.Double, count, raw, models.Token(4)))

	ack := sink.next(t)
	assert.Equal(t, models.Token(4), ack.Token)
	assert.NoError(t, ack.Status.Err("put"))

	require.Equal(t, models.ECANormal, s.SubmitGet(ch, dbr.Double, 1, models.Token(5)))
	c := sink.next(t)
	v, err := dbr.Decode(c.Raw, c.FieldType, c.Count)
	require.NoError(t, err)
	assert.Equal(t, 37.25, v.Data)
}

func TestPutWrongTypeRejected(t *testing.T) {
	s, _ := newSim(t)
	ch := resolve(t, s, "temp:water")

	count, raw, err := dbr.PrepareNative(dbr.Long, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, models.ECABadChid, s.SubmitPut(ch, dbr.Long, count, raw, models.Token(6)))
}

func TestMonitorInitialEventAndFanOut(t *testing.T) {
	s, sink := newSim(t)
	ch := resolve(t, s, "temp:water")

	require.Equal(t, models.ECANormal, s.SubmitMonitor(ch, dbr.TimeDouble, 1, models.DBEValue|models.DBEAlarm, models.Token(7)))

	initial := sink.next(t)
	assert.Equal(t, models.Token(7), initial.Token)
	v, err := dbr.Decode(initial.Raw, initial.FieldType, initial.Count)
	require.NoError(t, err)
	assert.Equal(t, 21.5, v.Data)
	assert.True(t, v.Meta.HasTimestamp)

	count, raw, err := dbr.PrepareNative(dbr.Double, 1, 99.0)
	require.NoError(t, err)
	require.Equal(t, models.ECANormal, s.SubmitPut(ch, dbr.Double, count, raw, models.Token(8)))

	// Two completions follow: the monitor event and the put ack, order
	// not guaranteed.
	var event *models.Completion
	for i := 0; i < 2; i++ {
		c := sink.next(t)
		if c.Token == models.Token(7) {
			cc := c
			event = &cc
		}
	}
	require.NotNil(t, event, "monitor event not delivered after put")
	v, err = dbr.Decode(event.Raw, event.FieldType, event.Count)
	require.NoError(t, err)
	assert.Equal(t, 99.0, v.Data)

	require.Equal(t, models.ECANormal, s.ClearMonitor(models.Token(7)))
}

func TestInjectedFailures(t *testing.T) {
	s, _ := newSim(t)
	ch := resolve(t, s, "temp:water")

	s.InjectGetFailure("temp:water", models.ECABadChid)
	assert.Equal(t, models.ECABadChid, s.SubmitGet(ch, dbr.Double, 1, models.Token(9)))

	s.InjectPutFailure("temp:water", models.ECATimeout)
	count, raw, err := dbr.PrepareNative(dbr.Double, 1, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.ECATimeout, s.SubmitPut(ch, dbr.Double, count, raw, models.Token(10)))
}
