// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
)

// Serial reads datagrams from a USB-attached device as comma-separated
// record lines, one per line in schema order.
type Serial struct {
	port      io.ReadWriteCloser
	ch        chan []float64
	closeOnce sync.Once
}

// NewSerial opens the port and starts the read loop.
func NewSerial(portName string, baud uint, schema *datagram.Schema) (*Serial, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", portName, err)
	}

	s := &Serial{
		port: port,
		ch:   make(chan []float64, channelDepth),
	}

	go func() {
		defer close(s.ch)
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			values, err := schema.ParseLine(line)
			if err != nil {
				log.Debugf("serial: skipping line: %v", err)
				continue
			}
			offer(s.ch, values)
		}
		if err := scanner.Err(); err != nil {
			log.Debugf("serial read stopped: %v", err)
		}
	}()

	log.Infof("serial: reading %s records from %s at %d baud", schema.Name, portName, baud)
	return s, nil
}

// Values returns the output channel.
func (s *Serial) Values() <-chan []float64 { return s.ch }

// Close stops the read loop by closing the port.
func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.port.Close()
	})
	return err
}
