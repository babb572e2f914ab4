// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/geom"
)

// workingLimit caps the working buffer so smoothing reads over recent
// history stay cheap no matter what capacity the caller asks for.
const workingLimit = 30

const gravity = 9.81

// Options configures a Device instance. Zero values select the
// defaults listed per field; all configuration is per-instance.
type Options struct {
	// Schema declares the wire record layout. Default: datagram.Mugic.
	Schema *datagram.Schema

	// BufferSize is the working buffer capacity (default 10, capped at
	// workingLimit).
	BufferSize int

	// ReserveSize configures the full-session reserve buffer: 0 keeps
	// no reserve, a negative value keeps every record, a positive value
	// keeps the newest that many.
	ReserveSize int

	// Legacy selects the MUGIC 1.0 axis conventions (inverted x
	// rotation, no gravity baked into the accelerometer).
	Legacy bool

	// Timeout is how long the device may be silent before it is
	// considered disconnected (default 5s).
	Timeout time.Duration

	// SmoothWindow is the default smoothing window for Next (default 6).
	SmoothWindow int

	// Classifier thresholds. Defaults: 0.1 movement, 80 rotation, 45°
	// facing tolerance, 0.70 pointing distance, 10 jolt magnitude.
	MoveThreshold   float64
	RotateThreshold float64
	FacingTolerance float64
	PointThreshold  float64
	JoltThreshold   float64

	// Frame detector tuning. Defaults: delta 2, low pass {3, 5, 5},
	// max frame duration 2s.
	AccelDelta   float64
	AccelLowPass [3]float64
	MaxFrame     time.Duration

	// Forward is the local unit vector the device points along
	// (default {1, 0, 0}).
	Forward geom.Vector
}

func (o Options) withDefaults() Options {
	if o.Schema == nil {
		o.Schema = datagram.Mugic
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 10
	}
	if o.BufferSize > workingLimit {
		o.BufferSize = workingLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.SmoothWindow <= 0 {
		o.SmoothWindow = 6
	}
	if o.MoveThreshold == 0 {
		o.MoveThreshold = 0.1
	}
	if o.RotateThreshold == 0 {
		o.RotateThreshold = 80
	}
	if o.FacingTolerance == 0 {
		o.FacingTolerance = 45
	}
	if o.PointThreshold == 0 {
		o.PointThreshold = 0.70
	}
	if o.JoltThreshold == 0 {
		o.JoltThreshold = 10
	}
	if o.AccelDelta == 0 {
		o.AccelDelta = 2
	}
	if o.AccelLowPass == ([3]float64{}) {
		o.AccelLowPass = [3]float64{3, 5, 5}
	}
	if o.MaxFrame <= 0 {
		o.MaxFrame = 2 * time.Second
	}
	if o.Forward == (geom.Vector{}) {
		o.Forward = geom.Vector{X: 1}
	}
	return o
}

// Device is the sensor pipeline for one IMU: it ingests decoded wire
// records, keeps the working and reserve buffers, owns the zero
// reference, and derives the movement frame. One mutex guards all of
// it; ingestion arrives from the transport goroutine, queries from the
// consumer loops.
type Device struct {
	mu  sync.Mutex
	opt Options

	schema *datagram.Schema
	legacy bool

	data    []datagram.Datagram // index 0 is newest
	reserve []datagram.Datagram // index 0 is newest

	zero     datagram.Datagram
	localSeq uint64

	lastIngest time.Time
	last       *datagram.Datagram // last record handed out by Next
	lastSeq    uint64

	det frameDetector

	now func() time.Time // injectable for tests
}

// New creates a Device with the given options.
func New(opt Options) *Device {
	opt = opt.withDefaults()
	dev := &Device{
		opt:    opt,
		schema: opt.Schema,
		legacy: opt.Legacy,
		data:   make([]datagram.Datagram, 0, opt.BufferSize),
		now:    time.Now,
	}
	if opt.ReserveSize != 0 {
		dev.reserve = make([]datagram.Datagram, 0)
	}
	dev.zero = identityZero()
	dev.det = newFrameDetector(opt.AccelDelta, opt.AccelLowPass, opt.MaxFrame, dev.now())
	return dev
}

func identityZero() datagram.Datagram {
	var z datagram.Datagram
	z.QW = 1
	return z
}

// Schema returns the wire schema the device decodes.
func (dev *Device) Schema() *datagram.Schema { return dev.schema }

// Legacy reports whether MUGIC 1.0 conventions are active.
func (dev *Device) Legacy() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.legacy
}

// Ingest decodes one raw positional value sequence and pushes it
// through the pipeline: variant transform, local sequence tag, frame
// detector update, buffer insertion. A schema mismatch rejects the
// packet and leaves all state untouched.
func (dev *Device) Ingest(values []float64) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	d, err := dev.schema.Decode(values)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	dev.transformLocked(&d)
	dev.ingestLocked(d)
	return nil
}

// ingestLocked runs the ingest tail for an already-transformed record.
func (dev *Device) ingestLocked(d datagram.Datagram) {
	now := dev.now()
	dev.localSeq++
	d.LocalSeq = dev.localSeq

	dev.det.update(dev.absoluteAccelLocked(&d, false), now)

	if len(dev.data) >= dev.opt.BufferSize {
		dev.data = dev.data[:len(dev.data)-1] // evict oldest
	}
	dev.data = append([]datagram.Datagram{d}, dev.data...)

	if dev.opt.ReserveSize != 0 {
		if dev.opt.ReserveSize > 0 && len(dev.reserve) >= dev.opt.ReserveSize {
			dev.reserve = dev.reserve[:len(dev.reserve)-1]
		}
		dev.reserve = append([]datagram.Datagram{d}, dev.reserve...)
	}

	dev.lastIngest = now
}

// transformLocked applies the device-variant corrections that the
// original firmware leaves to the host: MUGIC 2.0 bakes gravity into
// the accelerometer and flips the Z Euler angle; MUGIC 1.0 reports an
// inverted x rotation.
func (dev *Device) transformLocked(d *datagram.Datagram) {
	if dev.schema != datagram.Mugic {
		return
	}
	if dev.legacy {
		d.QZ, d.QX = -d.QZ, -d.QX
		d.EY = -d.EY
		return
	}
	q := d.Quat()
	g := geom.Vector{Z: gravity}.Rotate(q.Inverse())
	d.AX -= g.X
	d.AY -= g.Y
	d.AZ -= g.Z
	d.EZ = -d.EZ
}

// connectedLocked reports liveness and, on timeout detection, drains
// the working buffer so queries never serve stale records.
func (dev *Device) connectedLocked() bool {
	if dev.lastIngest.IsZero() {
		return false
	}
	if dev.now().Sub(dev.lastIngest) > dev.opt.Timeout {
		dev.data = dev.data[:0]
		dev.last = nil
		return false
	}
	return true
}

// Connected reports whether a record has been accepted within the
// configured timeout. Re-connection is implicit: the next ingested
// record clears the disconnected state.
func (dev *Device) Connected() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.connectedLocked()
}

// Peek returns a smoothed copy of the most recent records without
// consuming them. With raw set, calibration is skipped. The second
// return is false when no data is buffered (or the device timed out).
func (dev *Device) Peek(raw bool, smooth int) (datagram.Datagram, bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.peekLocked(raw, smooth)
}

func (dev *Device) peekLocked(raw bool, smooth int) (datagram.Datagram, bool) {
	dev.connectedLocked()
	if len(dev.data) == 0 {
		return datagram.Datagram{}, false
	}
	n := 1
	if smooth > 1 {
		n = smooth
		if n > len(dev.data) {
			n = len(dev.data)
		}
	}
	return dev.smoothLocked(dev.data[:n], raw), true
}

// Pop is Peek plus removal of the single most recent record.
func (dev *Device) Pop(raw bool, smooth int) (datagram.Datagram, bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	d, ok := dev.peekLocked(raw, smooth)
	if !ok {
		return d, false
	}
	dev.data = dev.data[1:]
	return d, true
}

// DrainAll empties the working buffer and returns its records in
// ingestion order (oldest first), calibrated unless raw is set. No
// smoothing is applied.
func (dev *Device) DrainAll(raw bool) []datagram.Datagram {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.connectedLocked()
	if len(dev.data) == 0 {
		return nil
	}
	out := make([]datagram.Datagram, 0, len(dev.data))
	for i := len(dev.data) - 1; i >= 0; i-- {
		d := dev.data[i]
		if !raw {
			dev.calibrateLocked(&d)
		}
		out = append(out, d)
	}
	dev.data = dev.data[:0]
	return out
}

// Collapse discards all but the newest record in both buffers and
// re-ingests it, recomputing the derived per-axis detector state.
func (dev *Device) Collapse() (datagram.Datagram, bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if len(dev.data) == 0 {
		return datagram.Datagram{}, false
	}
	newest := dev.data[0]
	dev.data = dev.data[:0]
	dev.reserve = dev.reserve[:0]
	dev.det.reset(dev.now())
	dev.ingestLocked(newest)
	return newest, true
}

// Session returns the full-session capture for export: the reserve
// buffer when one is configured, otherwise the working buffer. Records
// come back raw and in ingestion order.
func (dev *Device) Session() []datagram.Datagram {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	src := dev.data
	if dev.opt.ReserveSize != 0 {
		src = dev.reserve
	}
	out := make([]datagram.Datagram, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out
}

// Next is Peek with dedup and connection tracking: it returns the most
// recent smoothed record, or the previously returned one when nothing
// new has arrived. The locally assigned sequence counter decides
// newness, never the device-reported field. A smooth value of 0 selects
// the configured default window.
func (dev *Device) Next(raw bool, smooth int) (datagram.Datagram, bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.nextLocked(raw, smooth)
}

func (dev *Device) nextLocked(raw bool, smooth int) (datagram.Datagram, bool) {
	if smooth == 0 {
		smooth = dev.opt.SmoothWindow
	}
	nd, ok := dev.peekLocked(raw, smooth)
	if !ok {
		if dev.last == nil {
			return datagram.Datagram{}, false
		}
		return *dev.last, true
	}
	if dev.last == nil || nd.LocalSeq != dev.lastSeq {
		cp := nd
		dev.last = &cp
		dev.lastSeq = nd.LocalSeq
	}
	return *dev.last, true
}

// Frame returns the pseudo-impulse (rising acceleration times elapsed
// duration) for each spatial axis.
func (dev *Device) Frame() [3]float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.det.Frame()
}

// ResetFrame clears all three movement frame entries. Detector edge
// state is left alone; a mid-cycle swing can still complete.
func (dev *Device) ResetFrame() {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.det.resetFrame()
}

// absoluteAccelLocked returns the gravity/heading-corrected
// acceleration in the world frame. Unless raw is set the vector is
// first aligned to the calibrated zero heading.
func (dev *Device) absoluteAccelLocked(d *datagram.Datagram, raw bool) geom.Vector {
	accel := d.Accel()
	if !raw {
		zeroHeading := geom.Rotator(d2r(dev.zero.EX), geom.Vector{Z: 1})
		accel = accel.Rotate(zeroHeading)
	}
	return accel.Rotate(d.Quat())
}

// AbsoluteAccel is the exported form of the world-frame acceleration.
func (dev *Device) AbsoluteAccel(d *datagram.Datagram, raw bool) geom.Vector {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.absoluteAccelLocked(d, raw)
}

// AbsoluteGyro returns the heading-corrected angular rate in the world
// frame. Legacy quaternion corrections are undone first; the firmware
// reports rates against the uncorrected axes.
func (dev *Device) AbsoluteGyro(d *datagram.Datagram, raw bool) geom.Vector {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	rec := *d
	if dev.legacy {
		rec.QX, rec.QZ = -rec.QX, -rec.QZ
	}
	gyro := rec.Gyro()
	if !raw {
		zeroHeading := geom.Rotator(d2r(dev.zero.EX), geom.Vector{Z: 1})
		gyro = gyro.Rotate(zeroHeading)
	}
	return gyro.Rotate(rec.Quat())
}

// SetLegacy switches the device variant explicitly (normally detected
// at calibration time from the reported mV level).
func (dev *Device) SetLegacy(legacy bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.legacy != legacy {
		log.Infof("device: switching to legacy=%v conventions", legacy)
	}
	dev.legacy = legacy
}
