// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datagram

import "github.com/relabs-tech/gomugic/internal/geom"

// Datagram is one fixed-schema snapshot of the sensor channels. Every
// schema variant fills a subset of these fields; which subset, and the
// wire order, is declared by the Schema. Values are kept as float64
// across the board so that smoothing and calibration can treat all
// channels uniformly; integer-kind fields are truncated at decode time.
type Datagram struct {
	// Accelerometer
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
	AZ float64 `json:"az"`
	// Euler angles, degrees
	EX float64 `json:"ex"`
	EY float64 `json:"ey"`
	EZ float64 `json:"ez"`
	// Gyroscope
	GX float64 `json:"gx"`
	GY float64 `json:"gy"`
	GZ float64 `json:"gz"`
	// Magnetometer
	MX float64 `json:"mx"`
	MY float64 `json:"my"`
	MZ float64 `json:"mz"`
	// Orientation quaternion
	QW float64 `json:"qw"`
	QX float64 `json:"qx"`
	QY float64 `json:"qy"`
	QZ float64 `json:"qz"`

	// MUGIC-specific device status channels.
	Battery    float64 `json:"battery"`
	MV         float64 `json:"mv"`
	CalibSys   float64 `json:"calib_sys"`
	CalibGyro  float64 `json:"calib_gyro"`
	CalibAccel float64 `json:"calib_accel"`
	CalibMag   float64 `json:"calib_mag"`
	Seconds    float64 `json:"seconds"` // device uptime, milliseconds
	SeqNum     float64 `json:"seqnum"`  // device-reported sequence number

	// LocalSeq is assigned by the pipeline on ingestion and is the
	// authoritative "is this new" tie-breaker; the device-reported
	// SeqNum may wrap or reset across reboots. Not part of any wire
	// schema.
	LocalSeq uint64 `json:"-"`
}

// Accel returns the accelerometer channels as a vector.
func (d *Datagram) Accel() geom.Vector {
	return geom.Vector{X: d.AX, Y: d.AY, Z: d.AZ}
}

// Gyro returns the gyroscope channels as a vector.
func (d *Datagram) Gyro() geom.Vector {
	return geom.Vector{X: d.GX, Y: d.GY, Z: d.GZ}
}

// Mag returns the magnetometer channels as a vector.
func (d *Datagram) Mag() geom.Vector {
	return geom.Vector{X: d.MX, Y: d.MY, Z: d.MZ}
}

// Euler returns the Euler angle channels as a vector.
func (d *Datagram) Euler() geom.Vector {
	return geom.Vector{X: d.EX, Y: d.EY, Z: d.EZ}
}

// Quat returns the orientation quaternion. A degenerate stored
// quaternion (w exactly 0) is replaced by the identity so rotation math
// never sees a zero rotation.
func (d *Datagram) Quat() geom.Quaternion {
	if d.QW == 0 {
		return geom.Identity()
	}
	return geom.Quaternion{W: d.QW, X: d.QX, Y: d.QY, Z: d.QZ}
}

// SetQuat writes the quaternion components back to the record.
func (d *Datagram) SetQuat(q geom.Quaternion) {
	d.QW, d.QX, d.QY, d.QZ = q.W, q.X, q.Y, q.Z
}
