// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/geom"
)

// Controller-style predicate surface: every method takes an optional
// explicit record and defaults to the latest smoothed one. When the
// device is disconnected they all answer false (or an empty mask).

// resolve picks the record to classify: the caller's, or the latest.
func (dev *Device) resolve(d *datagram.Datagram) (*datagram.Datagram, bool) {
	if d != nil {
		return d, true
	}
	nd, ok := dev.Next(false, 0)
	if !ok {
		return nil, false
	}
	return &nd, true
}

func (dev *Device) moving(axis, dir int, d *datagram.Datagram) bool {
	if _, ok := dev.resolve(d); !ok {
		return false
	}
	return Moving(dev.Frame(), axis, dir, dev.opt.MoveThreshold)
}

func (dev *Device) rotating(axis, dir int, d *datagram.Datagram) bool {
	rec, ok := dev.resolve(d)
	if !ok {
		return false
	}
	return Rotating(rec, axis, dir, dev.opt.RotateThreshold)
}

func (dev *Device) facing(axis int, direction float64, d *datagram.Datagram) bool {
	rec, ok := dev.resolve(d)
	if !ok {
		return false
	}
	return Facing(rec, axis, direction, dev.opt.FacingTolerance)
}

func (dev *Device) pointing(point geom.Vector, d *datagram.Datagram) bool {
	rec, ok := dev.resolve(d)
	if !ok {
		return false
	}
	return Pointing(rec, dev.opt.Forward, point, dev.opt.PointThreshold)
}

// Movement along the world axes. Up/down is Z, left/right is Y,
// forward/backward is X; right is negative Y.
func (dev *Device) MovingUp(d *datagram.Datagram) bool       { return dev.moving(AxisZ, 1, d) }
func (dev *Device) MovingDown(d *datagram.Datagram) bool     { return dev.moving(AxisZ, -1, d) }
func (dev *Device) MovingRight(d *datagram.Datagram) bool    { return dev.moving(AxisY, -1, d) }
func (dev *Device) MovingLeft(d *datagram.Datagram) bool     { return dev.moving(AxisY, 1, d) }
func (dev *Device) MovingForward(d *datagram.Datagram) bool  { return dev.moving(AxisX, 1, d) }
func (dev *Device) MovingBackward(d *datagram.Datagram) bool { return dev.moving(AxisX, -1, d) }

// Rotation about the body axes, from the gyroscope.
func (dev *Device) RotatingRight(d *datagram.Datagram) bool { return dev.rotating(AxisX, 1, d) }
func (dev *Device) RotatingLeft(d *datagram.Datagram) bool  { return dev.rotating(AxisX, -1, d) }
func (dev *Device) RotatingUp(d *datagram.Datagram) bool    { return dev.rotating(AxisY, 1, d) }
func (dev *Device) RotatingDown(d *datagram.Datagram) bool  { return dev.rotating(AxisY, -1, d) }
func (dev *Device) TwistingRight(d *datagram.Datagram) bool { return dev.rotating(AxisZ, 1, d) }
func (dev *Device) TwistingLeft(d *datagram.Datagram) bool  { return dev.rotating(AxisZ, -1, d) }

// Facing on the Y Euler axis (pitch). Gimbal lock makes this axis the
// least reliable of the three.
func (dev *Device) PitchingUp(d *datagram.Datagram) bool       { return dev.facing(AxisY, 90, d) }
func (dev *Device) PitchingDown(d *datagram.Datagram) bool     { return dev.facing(AxisY, -90, d) }
func (dev *Device) PitchingForward(d *datagram.Datagram) bool  { return dev.facing(AxisY, 0, d) }
func (dev *Device) PitchingBackward(d *datagram.Datagram) bool { return dev.facing(AxisY, 180, d) }

// Facing on the X Euler axis (yaw/heading).
func (dev *Device) YawingRight(d *datagram.Datagram) bool    { return dev.facing(AxisX, 90, d) }
func (dev *Device) YawingLeft(d *datagram.Datagram) bool     { return dev.facing(AxisX, -90, d) }
func (dev *Device) YawingForward(d *datagram.Datagram) bool  { return dev.facing(AxisX, 0, d) }
func (dev *Device) YawingBackward(d *datagram.Datagram) bool { return dev.facing(AxisX, 180, d) }

// Facing on the Z Euler axis (roll).
func (dev *Device) RollingRight(d *datagram.Datagram) bool { return dev.facing(AxisZ, 90, d) }
func (dev *Device) RollingLeft(d *datagram.Datagram) bool  { return dev.facing(AxisZ, -90, d) }
func (dev *Device) RollingUp(d *datagram.Datagram) bool    { return dev.facing(AxisZ, 0, d) }
func (dev *Device) RollingDown(d *datagram.Datagram) bool  { return dev.facing(AxisZ, 180, d) }

// Pointing at the six cardinal points of the unit sphere.
func (dev *Device) PointingForward(d *datagram.Datagram) bool  { return dev.pointing(geom.Vector{X: 1}, d) }
func (dev *Device) PointingBackward(d *datagram.Datagram) bool { return dev.pointing(geom.Vector{X: -1}, d) }
func (dev *Device) PointingUp(d *datagram.Datagram) bool       { return dev.pointing(geom.Vector{Z: 1}, d) }
func (dev *Device) PointingDown(d *datagram.Datagram) bool     { return dev.pointing(geom.Vector{Z: -1}, d) }
func (dev *Device) PointingRight(d *datagram.Datagram) bool    { return dev.pointing(geom.Vector{Y: -1}, d) }
func (dev *Device) PointingLeft(d *datagram.Datagram) bool     { return dev.pointing(geom.Vector{Y: 1}, d) }

// Jolted reports an acceleration magnitude strictly above the
// configured threshold.
func (dev *Device) Jolted(d *datagram.Datagram) bool {
	rec, ok := dev.resolve(d)
	if !ok {
		return false
	}
	return Jolted(rec, dev.opt.JoltThreshold)
}

// Moving evaluates all six movement predicates against the current
// frame.
func (dev *Device) Moving(d *datagram.Datagram) uint8 {
	if _, ok := dev.resolve(d); !ok {
		return 0
	}
	return MovingBits(dev.Frame(), dev.opt.MoveThreshold)
}

// Rotating evaluates all six rotation predicates.
func (dev *Device) Rotating(d *datagram.Datagram) uint8 {
	rec, ok := dev.resolve(d)
	if !ok {
		return 0
	}
	return RotatingBits(rec, dev.opt.RotateThreshold)
}

// Pitching, Yawing, and Rolling evaluate the four facings per Euler
// axis.
func (dev *Device) Pitching(d *datagram.Datagram) uint8 {
	rec, ok := dev.resolve(d)
	if !ok {
		return 0
	}
	return PitchingBits(rec, dev.opt.FacingTolerance)
}

func (dev *Device) Yawing(d *datagram.Datagram) uint8 {
	rec, ok := dev.resolve(d)
	if !ok {
		return 0
	}
	return YawingBits(rec, dev.opt.FacingTolerance)
}

func (dev *Device) Rolling(d *datagram.Datagram) uint8 {
	rec, ok := dev.resolve(d)
	if !ok {
		return 0
	}
	return RollingBits(rec, dev.opt.FacingTolerance)
}

// Pointing evaluates the six cardinal pointing predicates.
func (dev *Device) Pointing(d *datagram.Datagram) uint8 {
	rec, ok := dev.resolve(d)
	if !ok {
		return 0
	}
	return PointingBits(rec, dev.opt.Forward, dev.opt.PointThreshold)
}
