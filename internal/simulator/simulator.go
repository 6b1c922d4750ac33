// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package simulator provides an in-memory Transport backed by a YAML
// fixture of process variables. It serves gets, applies puts, and pushes
// monitor events the way a live connection layer would, which makes it
// the backend for tests and for the example service.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/dbr"
	"github.com/epicsgo/caclient/pkg/models"
)

// fixture is the on-disk YAML schema.
type fixture struct {
	PVs []fixturePV `yaml:"pvs"`
}

type fixturePV struct {
	Name      string             `yaml:"name"`
	Type      string             `yaml:"type"`
	Value     interface{}        `yaml:"value"`
	Values    []interface{}      `yaml:"values"`
	Units     string             `yaml:"units"`
	Precision int16              `yaml:"precision"`
	States    []string           `yaml:"states"`
	Limits    map[string]float64 `yaml:"limits"`
}

type pv struct {
	name      string
	ftype     dbr.FieldType // native type
	count     int
	data      interface{} // canonical decoded form
	units     string
	precision int16
	states    []string
	limits    *dbr.Limits
	status    int16
	severity  int16
	seconds   uint32
	nanos     uint32
}

type monitor struct {
	pvName string
	ftype  dbr.FieldType
	count  int
}

// Simulator is an in-memory models.Transport.
type Simulator struct {
	lc   *slog.Logger
	sink models.CompletionSink

	mu       sync.Mutex
	latency  time.Duration
	pvs      map[string]*pv
	monitors map[models.Token]*monitor
	failGet  map[string]models.StatusCode
	failPut  map[string]models.StatusCode
}

// New loads the fixture file and returns a simulator ready to attach.
func New(lc *slog.Logger, fixturePath string) (*Simulator, error) {
	if lc == nil {
		lc = slog.Default()
	}
	s := &Simulator{
		lc:       lc,
		pvs:      make(map[string]*pv),
		monitors: make(map[models.Token]*monitor),
		failGet:  make(map[string]models.StatusCode),
		failPut:  make(map[string]models.StatusCode),
	}

	contents, err := os.ReadFile(fixturePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load PV fixture (%s)", fixturePath)
	}
	var fx fixture
	if err = yaml.Unmarshal(contents, &fx); err != nil {
		return nil, errors.Wrapf(err, "unable to parse PV fixture (%s)", fixturePath)
	}

	for _, f := range fx.PVs {
		p, err := buildPV(f)
		if err != nil {
			return nil, errors.Wrapf(err, "fixture PV %q", f.Name)
		}
		s.pvs[p.name] = p
	}
	lc.Info("loaded PV fixture", "path", fixturePath, "pvs", len(s.pvs))
	return s, nil
}

// Attach registers the completion sink. Must be called before any Submit.
func (s *Simulator) Attach(sink models.CompletionSink) { s.sink = sink }

// SetLatency delays every completion by d, emulating a round trip.
func (s *Simulator) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

func buildPV(f fixturePV) (*pv, error) {
	ftype, err := parseFieldType(f.Type)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		return nil, fmt.Errorf("missing name")
	}

	p := &pv{
		name:      f.Name,
		ftype:     ftype,
		units:     f.Units,
		precision: f.Precision,
		states:    f.States,
	}
	if f.Limits != nil {
		p.limits = &dbr.Limits{
			DispHigh:  f.Limits["disphigh"],
			DispLow:   f.Limits["displow"],
			AlarmHigh: f.Limits["alarmhigh"],
			WarnHigh:  f.Limits["warnhigh"],
			WarnLow:   f.Limits["warnlow"],
			AlarmLow:  f.Limits["alarmlow"],
			CtrlHigh:  f.Limits["ctrlhigh"],
			CtrlLow:   f.Limits["ctrllow"],
		}
	}

	switch {
	case f.Values != nil:
		p.count = len(f.Values)
		p.data = normalize(ftype, f.Values)
	case f.Value != nil:
		p.count = 1
		p.data = normalize(ftype, f.Value)
	default:
		p.count = 1
		p.data = zeroFor(ftype)
	}
	p.stamp()
	return p, nil
}

// normalize coerces fixture YAML values into the canonical decoded form
// the wire encoder accepts for the PV's native type.
func normalize(t dbr.FieldType, data interface{}) interface{} {
	switch t {
	case dbr.Char:
		switch d := data.(type) {
		case []interface{}:
			b := make([]byte, len(d))
			for i, x := range d {
				if n, ok := x.(int); ok {
					b[i] = byte(n)
				}
			}
			return b
		case int:
			return byte(d)
		case string:
			return d
		}
	case dbr.String:
		switch d := data.(type) {
		case []interface{}:
			ss := make([]string, len(d))
			for i, x := range d {
				ss[i] = fmt.Sprint(x)
			}
			return ss
		default:
			return fmt.Sprint(d)
		}
	}
	return data
}

func parseFieldType(s string) (dbr.FieldType, error) {
	switch strings.ToUpper(s) {
	case "STRING":
		return dbr.String, nil
	case "INT", "SHORT":
		return dbr.Int, nil
	case "FLOAT":
		return dbr.Float, nil
	case "ENUM":
		return dbr.Enum, nil
	case "CHAR":
		return dbr.Char, nil
	case "LONG":
		return dbr.Long, nil
	case "DOUBLE":
		return dbr.Double, nil
	}
	return dbr.Invalid, fmt.Errorf("unrecognized native type %q", s)
}

func zeroFor(t dbr.FieldType) interface{} {
	if t == dbr.String {
		return ""
	}
	return 0
}

func (p *pv) stamp() {
	now := time.Now()
	p.seconds = uint32(now.Unix() - dbr.EpicsToUnixEpoch)
	p.nanos = uint32(now.Nanosecond())
}

// ResolveChannel returns a handle for a known PV immediately. Unknown
// names behave like an unanswered search: the call blocks until ctx
// expires and then reports a timeout.
func (s *Simulator) ResolveChannel(ctx context.Context, name string) (models.Channel, error) {
	s.mu.Lock()
	p, ok := s.pvs[name]
	s.mu.Unlock()
	if !ok {
		<-ctx.Done()
		return nil, errors.Wrapf(caerrors.ErrTimeout, "resolving %q", name)
	}
	return &simChannel{sim: s, name: name, ftype: p.ftype, count: p.count}, nil
}

type simChannel struct {
	sim   *Simulator
	name  string
	ftype dbr.FieldType
	count int
}

func (c *simChannel) Name() string             { return c.name }
func (c *simChannel) FieldType() dbr.FieldType { return c.ftype }
func (c *simChannel) ElementCount() int        { return c.count }
func (c *simChannel) Connected() bool {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	_, ok := c.sim.pvs[c.name]
	return ok
}

// SubmitGet renders the PV in the requested type and delivers it on the
// sink from a separate goroutine, as a real circuit would.
func (s *Simulator) SubmitGet(ch models.Channel, fieldType dbr.FieldType, count int, token models.Token) models.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code, ok := s.failGet[ch.Name()]; ok {
		return code
	}
	p, ok := s.pvs[ch.Name()]
	if !ok {
		return models.ECABadChid
	}
	raw, err := s.render(p, fieldType, count)
	if err != nil {
		s.lc.Error("get render failed", "pv", p.name, "type", fieldType.String(), "error", err)
		return models.ECABadChid
	}
	s.deliver(models.Completion{Token: token, Status: models.ECANormal, FieldType: fieldType, Count: count, Raw: raw})
	return models.ECANormal
}

// SubmitPut decodes the native payload, stores it, restamps the PV, and
// fans events out to its monitors before acknowledging the put.
func (s *Simulator) SubmitPut(ch models.Channel, fieldType dbr.FieldType, count int, data []byte, token models.Token) models.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code, ok := s.failPut[ch.Name()]; ok {
		return code
	}
	p, ok := s.pvs[ch.Name()]
	if !ok {
		return models.ECABadChid
	}
	if fieldType != p.ftype {
		return models.ECABadChid
	}

	v, err := dbr.Decode(data, fieldType, count)
	if err != nil {
		s.lc.Error("put payload rejected", "pv", p.name, "error", err)
		return models.ECABadChid
	}
	p.data = v.Data
	p.count = count
	p.stamp()

	s.fanOutLocked(p)
	s.deliver(models.Completion{Token: token, Status: models.ECAIODone, FieldType: fieldType, Count: count})
	return models.ECANormal
}

// SubmitMonitor registers the subscription and pushes the current value
// as the initial event.
func (s *Simulator) SubmitMonitor(ch models.Channel, fieldType dbr.FieldType, count int, mask models.EventMask, token models.Token) models.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pvs[ch.Name()]
	if !ok {
		return models.ECABadChid
	}
	s.monitors[token] = &monitor{pvName: p.name, ftype: fieldType, count: count}

	raw, err := s.render(p, fieldType, count)
	if err != nil {
		s.lc.Error("monitor render failed", "pv", p.name, "error", err)
		return models.ECABadChid
	}
	s.deliver(models.Completion{Token: token, Status: models.ECANormal, FieldType: fieldType, Count: count, Raw: raw})
	return models.ECANormal
}

// ClearMonitor drops the subscription.
func (s *Simulator) ClearMonitor(token models.Token) models.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.monitors, token)
	return models.ECANormal
}

// InjectGetFailure makes subsequent gets on the PV fail synchronously
// with the given code. Used by tests.
func (s *Simulator) InjectGetFailure(name string, code models.StatusCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet[name] = code
}

// InjectPutFailure makes subsequent puts on the PV fail synchronously.
func (s *Simulator) InjectPutFailure(name string, code models.StatusCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut[name] = code
}

func (s *Simulator) fanOutLocked(p *pv) {
	for tok, m := range s.monitors {
		if m.pvName != p.name {
			continue
		}
		raw, err := s.render(p, m.ftype, m.count)
		if err != nil {
			s.lc.Error("monitor event render failed", "pv", p.name, "error", err)
			continue
		}
		s.deliver(models.Completion{Token: tok, Status: models.ECANormal, FieldType: m.ftype, Count: m.count, Raw: raw})
	}
}

func (s *Simulator) deliver(c models.Completion) {
	sink := s.sink
	if sink == nil {
		s.lc.Warn("completion dropped, no sink attached", "token", uint64(c.Token))
		return
	}
	delay := s.latency
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		sink.Complete(c)
	}()
}

// render encodes the PV's current state in the requested wire type.
func (s *Simulator) render(p *pv, t dbr.FieldType, count int) ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unrecognized field type %d", int16(t))
	}
	if count < 1 || count > p.count {
		count = p.count
	}

	v := &dbr.Value{
		Type:  t,
		Count: count,
		Meta: &dbr.Metadata{
			Status:      p.status,
			Severity:    p.severity,
			Seconds:     p.seconds,
			Nanoseconds: p.nanos,
			Units:       p.units,
			Precision:   p.precision,
			Limits:      p.limits,
			EnumStrings: p.states,
		},
		Data: p.data,
	}
	if t.Native() == dbr.String && p.ftype != dbr.String {
		v.Data = stringify(p.data, count)
	}
	return dbr.EncodeValue(v)
}

func stringify(data interface{}, count int) interface{} {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		if count == 1 {
			return fmt.Sprint(data)
		}
		rv = reflect.ValueOf([]interface{}{data})
	}
	if count == 1 {
		if rv.Len() == 0 {
			return ""
		}
		return fmt.Sprint(rv.Index(0).Interface())
	}
	out := make([]string, count)
	for i := 0; i < count && i < rv.Len(); i++ {
		out[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return out
}
