// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
)

// fallbackInterval paces records whose schema carries no device
// timestamp, approximating the live sampling rate.
const fallbackInterval = 20 * time.Millisecond

// Playback replays recorded value sequences against a virtual clock
// advancing at wall-clock rate, keyed on the record's device uptime
// field. It satisfies the same channel contract as the live sources,
// so the pipeline never knows it is consuming a recording.
type Playback struct {
	ch        chan []float64
	done      chan struct{}
	closeOnce sync.Once
}

// NewPlayback starts replaying the given records, timed by the
// schema's "seconds" field (device milliseconds) relative to the first
// record. Schemas without that field replay at a fixed interval.
func NewPlayback(records [][]float64, schema *datagram.Schema) *Playback {
	p := &Playback{
		ch:   make(chan []float64, channelDepth),
		done: make(chan struct{}),
	}

	secondsIdx := -1
	for i, f := range schema.Fields {
		if f.Name == "seconds" {
			secondsIdx = i
			break
		}
	}

	go p.run(records, secondsIdx)
	log.Infof("playback: replaying %d records", len(records))
	return p
}

func (p *Playback) run(records [][]float64, secondsIdx int) {
	defer close(p.ch)
	if len(records) == 0 {
		return
	}

	start := time.Now()
	var base float64
	if secondsIdx >= 0 && secondsIdx < len(records[0]) {
		base = records[0][secondsIdx]
	}

	for i, values := range records {
		var wait time.Duration
		if secondsIdx >= 0 && secondsIdx < len(values) {
			// Device uptime is in milliseconds.
			due := time.Duration((values[secondsIdx]-base)*float64(time.Millisecond)) - time.Since(start)
			wait = due
		} else {
			wait = time.Until(start.Add(time.Duration(i) * fallbackInterval))
		}
		if wait > 0 {
			select {
			case <-p.done:
				return
			case <-time.After(wait):
			}
		}
		select {
		case <-p.done:
			return
		case p.ch <- values:
		}
	}
}

// Values returns the output channel; it closes when the recording is
// exhausted.
func (p *Playback) Values() <-chan []float64 { return p.ch }

// Close stops the replay.
func (p *Playback) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
