// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/config"
	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/device"
	"github.com/relabs-tech/gomugic/internal/recording"
	"github.com/relabs-tech/gomugic/internal/source"
)

// connectWait bounds how long record waits for the first packet.
const connectWait = 60 * time.Second

// RunRecord captures raw sensor traffic for the given duration and
// writes it to path as a replayable recording.
func RunRecord(path string, duration time.Duration) error {
	cfg := config.Get()

	// The reserve buffer holds the whole session uncalibrated, so the
	// recording is independent of the zero pose at capture time.
	dev := device.New(device.Options{
		Schema:      datagram.Mugic,
		BufferSize:  cfg.BufferSize,
		ReserveSize: -1,
		Legacy:      cfg.Legacy,
		Timeout:     time.Duration(cfg.DisconnectTimeout) * time.Millisecond,
	})
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go source.Pump(ctx, src, dev)

	log.Info("record: waiting for sensor data")
	deadline := time.Now().Add(connectWait)
	for !dev.Connected() {
		if time.Now().After(deadline) {
			return fmt.Errorf("record: no sensor data within %s", connectWait)
		}
		time.Sleep(500 * time.Millisecond)
	}

	log.Infof("record: capturing for %s", duration)
	time.Sleep(duration)
	cancel()

	session := dev.Session()
	if len(session) == 0 {
		return fmt.Errorf("record: captured no records")
	}
	return recording.Save(path, datagram.Mugic, session)
}
