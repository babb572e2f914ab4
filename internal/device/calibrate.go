// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
)

func d2r(deg float64) float64 { return deg * math.Pi / 180 }

// wrap360 folds an angle into [0, 360).
func wrap360(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// Calibrate captures a new zero reference. With a nil ref the most
// recent uncalibrated record becomes the reference; against an empty
// buffer that is a silent no-op and the previous reference is kept.
// Accelerometer, magnetometer, and device-status offsets are forced
// back to zero afterwards: only orientation is truly zeroed. The
// movement frame is reset alongside.
func (dev *Device) Calibrate(ref *datagram.Datagram) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	dev.autoDetectLocked()

	if ref == nil {
		if len(dev.data) == 0 {
			log.Debug("device: calibrate with empty buffer, keeping previous zero reference")
			return
		}
		cp := dev.data[0]
		ref = &cp
	}

	zero := *ref

	// Accelerometer and magnetometer are measurements, not pose; their
	// offsets stay zero no matter what the reference says.
	zero.AX, zero.AY, zero.AZ = 0, 0, 0
	zero.MX, zero.MY, zero.MZ = 0, 0, 0

	// Device status channels are never calibrated.
	zero.Battery, zero.MV = 0, 0
	zero.CalibSys, zero.CalibGyro, zero.CalibAccel, zero.CalibMag = 0, 0, 0, 0
	zero.Seconds, zero.SeqNum = 0, 0
	zero.LocalSeq = 0

	dev.zero = zero
	dev.det.resetFrame()
}

// autoDetectLocked switches between MUGIC 1.0 and 2.0 conventions from
// the reported voltage channel; only the legacy hardware reports
// hundreds of mV there.
func (dev *Device) autoDetectLocked() {
	if dev.schema != datagram.Mugic || !dev.connectedLocked() || len(dev.data) == 0 {
		return
	}
	mv := dev.data[0].MV
	if mv > 100 && !dev.legacy {
		log.Info("device: high mV reading, assuming MUGIC 1.0 conventions")
		dev.legacy = true
	} else if mv <= 100 && dev.legacy {
		log.Info("device: low mV reading, assuming MUGIC 2.0 conventions")
		dev.legacy = false
	}
}

// Zero returns a copy of the current zero reference.
func (dev *Device) Zero() datagram.Datagram {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.zero
}

// calibrateLocked applies the zero reference to a record in place:
// the orientation becomes inverse(zeroQuat) * recordQuat renormalized,
// every scalar field has its offset subtracted (a no-op for the fields
// forced to zero at capture time), and Euler angles wrap into [0, 360).
func (dev *Device) calibrateLocked(d *datagram.Datagram) {
	cq := dev.zero.Quat().Inverse().Mul(d.Quat()).Normalize()
	for _, f := range dev.schema.Fields {
		f.Set(d, f.Get(d)-f.Get(&dev.zero))
	}
	d.SetQuat(cq)
	d.EX = wrap360(d.EX)
	d.EY = wrap360(d.EY)
	d.EZ = wrap360(d.EZ)
}
