// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMonitorStatus(t *testing.T) {
	m, err := NewMiner(&config{MaxThreads: 1, BatchSize: 100}, testParams(), nil)
	if err != nil {
		t.Fatalf("NewMiner: unexpected error: %v", err)
	}
	m.batches.Store(3)
	m.hashes.Store(300)
	m.lastRate.Store(1500)
	m.nonce.Store(1300)

	router := newMonitorRouter(m)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("got content type %q", ct)
	}

	var ms MinerStatus
	if err := json.NewDecoder(rec.Body).Decode(&ms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := MinerStatus{
		Mode:              "CPU",
		Device:            "cpu",
		Batches:           3,
		Hashes:            300,
		HashRate:          1500,
		HashRateFormatted: "1.50 KH/s",
		Nonce:             1300,
		Started:           m.started,
	}
	ms.Uptime = 0
	if ms != want {
		t.Fatalf("got %+v, want %+v", ms, want)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST: got status %d, want %d", rec.Code,
			http.StatusMethodNotAllowed)
	}
}
