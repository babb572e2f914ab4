// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/config"
	"github.com/relabs-tech/gomugic/internal/source"
)

// motionReport is the payload published on the motion topic. It
// carries only the classifier output so subscribers reacting to
// gestures do not have to parse full datagrams.
type motionReport struct {
	Connected bool       `json:"connected"`
	Frame     [3]float64 `json:"frame"`
	Moving    []string   `json:"moving"`
	Rotating  []string   `json:"rotating"`
	Pointing  []string   `json:"pointing"`
	Jolted    bool       `json:"jolted"`
}

// RunMonitor ingests sensor data and republishes it over MQTT: the
// calibrated datagram on one topic and the motion classification on
// another, at the configured interval.
func RunMonitor() error {
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

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDMonitor).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("monitor: mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Infof("monitor: connected to broker %s", cfg.MQTTBroker)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.PublishInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case s := <-sigs:
			log.Infof("monitor: received %v, shutting down", s)
			return nil
		case <-ticker.C:
			st := snapshot(dev)
			if st.Datagram != nil {
				payload, err := json.Marshal(st.Datagram)
				if err != nil {
					log.Errorf("monitor: marshal datagram: %v", err)
					continue
				}
				client.Publish(cfg.TopicDatagram, 0, false, payload)
			}
			report := motionReport{
				Connected: st.Connected,
				Frame:     st.Frame,
				Moving:    st.Moving,
				Rotating:  st.Rotating,
				Pointing:  st.Pointing,
				Jolted:    st.Jolted,
			}
			payload, err := json.Marshal(report)
			if err != nil {
				log.Errorf("monitor: marshal motion: %v", err)
				continue
			}
			client.Publish(cfg.TopicMotion, 0, false, payload)
		}
	}
}
