// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/gomugic/internal/config"
	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/device"
	"github.com/relabs-tech/gomugic/internal/source"
)

// buildDevice constructs the pipeline device from configuration.
func buildDevice(cfg *config.Config) *device.Device {
	return device.New(device.Options{
		Schema:            datagram.Mugic,
		BufferSize:        cfg.BufferSize,
		ReserveSize:       cfg.ReserveSize,
		Legacy:            cfg.Legacy,
		Timeout:           time.Duration(cfg.DisconnectTimeout) * time.Millisecond,
		SmoothWindow:      cfg.SmoothWindow,
		MoveThreshold:     cfg.MoveThreshold,
		RotateThreshold:   cfg.RotateThreshold,
		FacingTolerance:   cfg.FacingTolerance,
		PointThreshold:    cfg.PointThreshold,
		JoltThreshold:     cfg.JoltThreshold,
		AccelDelta:        cfg.AccelDelta,
		AccelLowPass:      [3]float64{cfg.AccelLowPassX, cfg.AccelLowPassY, cfg.AccelLowPassZ},
		MaxFrame:          time.Duration(cfg.MaxFrameMs) * time.Millisecond,
	})
}

// openSource picks the transport: serial when a port is configured,
// the OSC/UDP listener otherwise.
func openSource(cfg *config.Config) (source.Source, error) {
	if cfg.SerialPort != "" {
		return source.NewSerial(cfg.SerialPort, uint(cfg.SerialBaud), datagram.Mugic)
	}
	return source.NewOSC(cfg.OSCPort)
}

// State is the derived pipeline snapshot served to external consumers
// (web visualizer, MQTT subscribers, console).
type State struct {
	Connected bool               `json:"connected"`
	Datagram  *datagram.Datagram `json:"datagram,omitempty"`
	Frame     [3]float64         `json:"frame"`
	Moving    []string           `json:"moving"`
	Rotating  []string           `json:"rotating"`
	Pointing  []string           `json:"pointing"`
	Jolted    bool               `json:"jolted"`
}

// snapshot evaluates the classifier set against the latest record.
func snapshot(dev *device.Device) State {
	st := State{Connected: dev.Connected()}
	if !st.Connected {
		return st
	}
	nd, ok := dev.Next(false, 0)
	if !ok {
		return st
	}
	st.Datagram = &nd
	st.Frame = dev.Frame()
	st.Moving = device.MovingLabels(dev.Moving(&nd))
	st.Rotating = device.RotatingLabels(dev.Rotating(&nd))
	st.Pointing = device.PointingLabels(dev.Pointing(&nd))
	st.Jolted = dev.Jolted(&nd)
	return st
}

func addr(port int) string { return fmt.Sprintf(":%d", port) }
