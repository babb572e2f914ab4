// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/recording"
	"github.com/relabs-tech/gomugic/internal/source"
)

// RunReplay streams a recording to an OSC receiver at the pace the
// original session was captured, so any consumer of live sensor
// traffic can be exercised without hardware.
func RunReplay(path, host string, port int) error {
	records, err := recording.Load(path, datagram.Mugic)
	if err != nil {
		return err
	}

	pb := source.NewPlayback(records, datagram.Mugic)
	defer pb.Close()

	sender := source.NewSender(host, port, datagram.Mugic)
	sent := 0
	for values := range pb.Values() {
		if err := sender.Send(values); err != nil {
			return err
		}
		sent++
	}
	log.Infof("replay: sent %d records to %s:%d", sent, host, port)
	return nil
}
