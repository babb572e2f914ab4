// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/config"
	"github.com/relabs-tech/gomugic/internal/device"
	"github.com/relabs-tech/gomugic/internal/source"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any origin for local development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunWeb ingests sensor data and serves it over HTTP: a JSON snapshot
// endpoint, a websocket stream for visualizers, and static files from
// ./web if present.
func RunWeb() error {
	cfg := config.Get()

	dev := buildDevice(cfg)
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go source.Pump(ctx, src, dev)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/datagram", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot(dev)); err != nil {
			log.Errorf("web: encode state: %v", err)
		}
	})
	mux.HandleFunc("/api/calibrate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		dev.Calibrate(nil)
		log.Info("web: calibrated against current pose")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveStream(w, r, dev, time.Duration(cfg.PublishInterval)*time.Millisecond)
	})
	mux.Handle("/", http.FileServer(http.Dir("./web")))

	log.Infof("web: listening on %s", addr(cfg.WebServerPort))
	return http.ListenAndServe(addr(cfg.WebServerPort), mux)
}

// serveStream pushes state snapshots over a websocket until the client
// goes away.
func serveStream(w http.ResponseWriter, r *http.Request, dev *device.Device, interval time.Duration) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	log.Infof("web: client connected from %s", r.RemoteAddr)

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(snapshot(dev)); err != nil {
			log.Infof("web: client %s disconnected: %v", r.RemoteAddr, err)
			return
		}
	}
}
