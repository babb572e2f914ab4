// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
)

// AddressPattern is the OSC address the MUGIC firmware publishes its
// datagrams on.
const AddressPattern = "/mugicdata"

// OSC listens for MUGIC datagrams on a UDP port and emits their
// arguments as positional value sequences.
type OSC struct {
	conn      net.PacketConn
	ch        chan []float64
	closeOnce sync.Once
}

// NewOSC binds the UDP port and starts serving.
func NewOSC(port int) (*OSC, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("osc listen: %w", err)
	}

	s := &OSC{
		conn: conn,
		ch:   make(chan []float64, channelDepth),
	}

	dispatcher := osc.NewStandardDispatcher()
	if err := dispatcher.AddMsgHandler(AddressPattern, func(msg *osc.Message) {
		offer(s.ch, arguments(msg))
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("osc dispatcher: %w", err)
	}

	server := &osc.Server{Dispatcher: dispatcher}
	go func() {
		defer close(s.ch)
		if err := server.Serve(conn); err != nil {
			// Closing the connection ends Serve with an error.
			log.Debugf("osc server stopped: %v", err)
		}
	}()

	log.Infof("osc: listening on udp %s for %s", conn.LocalAddr(), AddressPattern)
	return s, nil
}

// Values returns the output channel.
func (s *OSC) Values() <-chan []float64 { return s.ch }

// Close stops the listener; the output channel closes shortly after.
func (s *OSC) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// arguments coerces the OSC argument list to float64 values. The
// firmware mixes float32 and int32 on the wire.
func arguments(msg *osc.Message) []float64 {
	values := make([]float64, 0, len(msg.Arguments))
	for _, arg := range msg.Arguments {
		switch v := arg.(type) {
		case float32:
			values = append(values, float64(v))
		case float64:
			values = append(values, v)
		case int32:
			values = append(values, float64(v))
		case int64:
			values = append(values, float64(v))
		default:
			log.Debugf("osc: ignoring argument of type %T", arg)
		}
	}
	return values
}

// Sender publishes positional value sequences to an OSC address, the
// symmetric half of the transport contract used by playback.
type Sender struct {
	client *osc.Client
	schema *datagram.Schema
}

// NewSender creates a sender for host:port emitting records of the
// given schema.
func NewSender(host string, port int, schema *datagram.Schema) *Sender {
	return &Sender{client: osc.NewClient(host, port), schema: schema}
}

// message renders one value sequence as a MUGIC datagram message.
// Integer-kind positions travel as int32; float32 quantizes whole
// numbers above 2^24, which would corrupt uptime and sequence counters
// on long sessions.
func (s *Sender) message(values []float64) *osc.Message {
	msg := osc.NewMessage(AddressPattern)
	for i, v := range values {
		if i < len(s.schema.Fields) && s.schema.Fields[i].Kind == datagram.Int {
			msg.Append(int32(v))
		} else {
			msg.Append(float32(v))
		}
	}
	return msg
}

// Send publishes one value sequence.
func (s *Sender) Send(values []float64) error {
	return s.client.Send(s.message(values))
}
