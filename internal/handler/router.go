// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package handler exposes the client over REST for scripting and
// diagnostics: read and write PVs, fetch the info report, liveness, and
// the Prometheus metrics endpoint.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/epicsgo/caclient/internal/common"
	"github.com/epicsgo/caclient/pkg/caerrors"
	"github.com/epicsgo/caclient/pkg/client"
)

type restRouter struct {
	lc *slog.Logger
	cl *client.Client
}

// InitRestRoutes builds the service router around cl.
func InitRestRoutes(cl *client.Client, lc *slog.Logger) *mux.Router {
	if lc == nil {
		lc = common.LoggingClient
	}
	rr := &restRouter{lc: lc, cl: cl}

	r := mux.NewRouter()
	r.HandleFunc(common.APIPingRoute, rr.pingHandler).Methods(http.MethodGet)
	r.Handle(common.APIMetricsRoute, promhttp.Handler()).Methods(http.MethodGet)

	pv := common.APIPvRoute + "/{" + common.NameVar + "}"
	r.HandleFunc(pv, rr.getPvHandler).Methods(http.MethodGet)
	r.HandleFunc(pv, rr.putPvHandler).Methods(http.MethodPut)
	r.HandleFunc(pv+"/info", rr.infoHandler).Methods(http.MethodGet)
	return r
}

// pvResponse is the JSON rendering of a read.
type pvResponse struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Count     int         `json:"count"`
	Value     interface{} `json:"value"`
	Text      string      `json:"text"`
	Status    int16       `json:"status"`
	Severity  int16       `json:"severity"`
	Timestamp float64     `json:"timestamp,omitempty"`
}

type putRequest struct {
	Value interface{} `json:"value"`
}

func (rr *restRouter) pingHandler(w http.ResponseWriter, req *http.Request) {
	io.WriteString(w, "pong")
}

func (rr *restRouter) getPvHandler(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)[common.NameVar]
	cid := correlationID(w, req)

	v, err := rr.cl.Get(req.Context(), name)
	if err != nil {
		rr.fail(w, cid, name, err)
		return
	}

	resp := pvResponse{
		Name:     name,
		Type:     v.Type.String(),
		Count:    v.Count,
		Value:    v.Data,
		Text:     rr.cl.AsString(v),
		Status:   v.Meta.Status,
		Severity: v.Meta.Severity,
	}
	if v.Meta.HasTimestamp {
		resp.Timestamp = v.Meta.UnixTimestamp()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rr *restRouter) putPvHandler(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)[common.NameVar]
	cid := correlationID(w, req)

	var body putRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		rr.lc.Warn("invalid put body", "pv", name, "correlation", cid, "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := rr.cl.Put(req.Context(), name, body.Value); err != nil {
		rr.fail(w, cid, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rr *restRouter) infoHandler(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)[common.NameVar]
	cid := correlationID(w, req)

	report, err := rr.cl.Info(req.Context(), name)
	if err != nil {
		rr.fail(w, cid, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, report)
}

func (rr *restRouter) fail(w http.ResponseWriter, cid, name string, err error) {
	rr.lc.Error("request failed", "pv", name, "correlation", cid, "error", err)
	switch {
	case caerrors.IsTimeout(err):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case caerrors.IsNotConnected(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case caerrors.IsTypeMismatch(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// correlationID echoes the caller's correlation header, minting one when
// absent.
func correlationID(w http.ResponseWriter, req *http.Request) string {
	cid := req.Header.Get(common.CorrelationHeader)
	if cid == "" {
		cid = uuid.New().String()
	}
	w.Header().Set(common.CorrelationHeader, cid)
	return cid
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
