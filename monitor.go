// Copyright (c) 2016-2023 The Decred developers.

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/decred/clsearch/util"
)

type MinerStatus struct {
	Mode   string `json:"mode"`
	Device string `json:"device"`

	Batches           uint64  `json:"batches"`
	Hashes            uint64  `json:"hashes"`
	HashRate          float64 `json:"hashRate"`
	HashRateFormatted string  `json:"hashRateFormatted"`
	Nonce             uint64  `json:"nonce"`
	HardwareErrors    uint64  `json:"hardwareErrors"`
	Found             bool    `json:"found"`

	Started uint32 `json:"started"`
	Uptime  uint32 `json:"uptime"`
}

// newMonitorRouter returns the status API routes for m.
func newMonitorRouter(m *Miner) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		getMinerStatus(m, w)
	}).Methods(http.MethodGet)
	return router
}

// RunMonitor serves the status API of m on each of listeners.
func RunMonitor(m *Miner, listeners []string) {
	router := newMonitorRouter(m)
	for _, addr := range listeners {
		addr := addr
		go func() {
			mntrLog.Infof("Status API listening on %s", addr)
			err := http.ListenAndServe(addr, router)
			if err != nil {
				mntrLog.Warnf("Unable to create monitor: %v", err)
			}
		}()
	}
}

func getMinerStatus(m *Miner, w http.ResponseWriter) {
	batches, hashes, hashRate, nonce := m.Status()
	ms := &MinerStatus{
		Mode:              m.mode(),
		Device:            m.deviceName,
		Batches:           batches,
		Hashes:            hashes,
		HashRate:          hashRate,
		HashRateFormatted: util.FormatHashRate(hashRate),
		Nonce:             nonce,
		HardwareErrors:    m.hwErrors.Load(),
		Found:             m.found.Load(),
		Started:           m.started,
		Uptime:            uint32(time.Now().Unix()) - m.started,
	}

	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ms); err != nil {
		mntrLog.Debugf("Unable to write status: %v", err)
	}
}
