// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package source provides the transports that feed raw positional
// value sequences into the pipeline: a live OSC/UDP listener, a serial
// line reader, and a recording playback source. All three share the
// same bounded-channel contract so the pipeline never special-cases
// where its data comes from.
package source

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// channelDepth bounds every source's output channel. A slow consumer
// drops the newest packet rather than blocking the transport.
const channelDepth = 64

// Source is anything that can emit raw positional value sequences.
// The channel closes when the source is done or closed.
type Source interface {
	Values() <-chan []float64
	Close() error
}

// Ingester consumes one decoded value sequence; *device.Device
// satisfies it.
type Ingester interface {
	Ingest(values []float64) error
}

// Pump drains a source into an ingester until the source closes or the
// context is cancelled. Rejected packets (schema mismatches) are
// logged and skipped; pipeline state is unaffected by them.
func Pump(ctx context.Context, src Source, sink Ingester) {
	for {
		select {
		case <-ctx.Done():
			return
		case values, ok := <-src.Values():
			if !ok {
				return
			}
			if err := sink.Ingest(values); err != nil {
				log.Warnf("source: dropping packet: %v", err)
			}
		}
	}
}

// offer pushes onto a bounded channel, dropping the value when the
// consumer is behind.
func offer(ch chan []float64, values []float64) {
	select {
	case ch <- values:
	default:
		log.Debug("source: consumer behind, dropping packet")
	}
}
