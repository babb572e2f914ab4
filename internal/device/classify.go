// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/geom"
)

// The classifier is a set of pure predicates over a calibrated record
// and/or the current movement frame, plus bitmask aggregates with
// label renderings. All predicates degrade to false when the device is
// disconnected (Next yields nothing).

// Spatial axis indices for frame queries.
const (
	AxisX = 0 // forward/backward
	AxisY = 1 // left/right
	AxisZ = 2 // up/down
)

// Moving compares the signed frame value on an axis against a
// threshold. dir is +1 or -1.
func Moving(frame [3]float64, axis, dir int, threshold float64) bool {
	return frame[axis]*float64(dir) > threshold
}

// Rotating compares the signed gyroscope reading on an axis against a
// threshold. dir is +1 or -1.
func Rotating(d *datagram.Datagram, axis, dir int, threshold float64) bool {
	return d.Gyro().Axis(axis)*float64(dir) > threshold
}

// Facing tests whether the Euler angle on an axis lies within
// tolerance of a target direction, with wraparound at 0/360. Angles
// are truncated to whole degrees before comparison.
func Facing(d *datagram.Datagram, axis int, directionDeg, tolerance float64) bool {
	direction := wrap360(directionDeg)
	angle := float64((int(d.Euler().Axis(axis))%360 + 360) % 360)
	left := wrap360(direction - tolerance)
	right := wrap360(direction + tolerance)
	if left > right {
		return angle >= left || angle <= right
	}
	return angle >= left && angle <= right
}

// PointingAt rotates the local forward vector by the record's
// orientation: the point on the unit sphere the device points at.
func PointingAt(d *datagram.Datagram, forward geom.Vector) geom.Vector {
	return forward.Rotate(d.Quat().Normalize())
}

// Pointing tests whether the device points within a Euclidean distance
// threshold of a target point on the unit sphere.
func Pointing(d *datagram.Datagram, forward, point geom.Vector, threshold float64) bool {
	return PointingAt(d, forward).Dist(point) < threshold
}

// Jolted reports an acceleration magnitude strictly above the
// threshold.
func Jolted(d *datagram.Datagram, threshold float64) bool {
	return d.Accel().Norm() > threshold
}

// Bit positions shared by the six-way aggregates.
const (
	BitUp = 1 << iota
	BitDown
	BitRight
	BitLeft
	BitForward
	BitBackward
)

var sixLabels = []string{"UP", "DN", "RT", "LT", "FW", "BW"}

// Facing aggregates use four bits; rotation reuses the six-way order
// with twist in the forward/backward slots.
var facingLabels = []string{"RT", "LT", "FW", "BW"}
var rotatingLabels = []string{"UP", "DN", "RT", "LT", "TR", "TL"}

func labels(bits uint8, names []string) []string {
	var out []string
	for i, name := range names {
		if bits&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// MovingBits evaluates all six movement predicates against one frame.
func MovingBits(frame [3]float64, threshold float64) uint8 {
	var bits uint8
	if Moving(frame, AxisZ, 1, threshold) {
		bits |= BitUp
	}
	if Moving(frame, AxisZ, -1, threshold) {
		bits |= BitDown
	}
	if Moving(frame, AxisY, -1, threshold) {
		bits |= BitRight
	}
	if Moving(frame, AxisY, 1, threshold) {
		bits |= BitLeft
	}
	if Moving(frame, AxisX, 1, threshold) {
		bits |= BitForward
	}
	if Moving(frame, AxisX, -1, threshold) {
		bits |= BitBackward
	}
	return bits
}

// MovingLabels renders movement bits as direction labels.
func MovingLabels(bits uint8) []string { return labels(bits, sixLabels) }

// RotatingBits evaluates all six rotation predicates against one
// record.
func RotatingBits(d *datagram.Datagram, threshold float64) uint8 {
	var bits uint8
	if Rotating(d, AxisY, 1, threshold) {
		bits |= BitUp
	}
	if Rotating(d, AxisY, -1, threshold) {
		bits |= BitDown
	}
	if Rotating(d, AxisX, 1, threshold) {
		bits |= BitRight
	}
	if Rotating(d, AxisX, -1, threshold) {
		bits |= BitLeft
	}
	if Rotating(d, AxisZ, 1, threshold) {
		bits |= BitForward // twisting right
	}
	if Rotating(d, AxisZ, -1, threshold) {
		bits |= BitBackward // twisting left
	}
	return bits
}

// RotatingLabels renders rotation bits as direction labels.
func RotatingLabels(bits uint8) []string { return labels(bits, rotatingLabels) }

// facingBits evaluates the four cardinal facings on one Euler axis.
// Order: first, second, forward (0°), backward (180°), where first and
// second are the +90°/-90° directions for that axis.
func facingBits(d *datagram.Datagram, axis int, tolerance float64) uint8 {
	var bits uint8
	for i, dir := range []float64{90, -90, 0, 180} {
		if Facing(d, axis, dir, tolerance) {
			bits |= 1 << i
		}
	}
	return bits
}

// YawingBits classifies heading on the X Euler axis.
func YawingBits(d *datagram.Datagram, tolerance float64) uint8 {
	return facingBits(d, AxisX, tolerance)
}

// PitchingBits classifies elevation on the Y Euler axis.
func PitchingBits(d *datagram.Datagram, tolerance float64) uint8 {
	return facingBits(d, AxisY, tolerance)
}

// RollingBits classifies roll on the Z Euler axis.
func RollingBits(d *datagram.Datagram, tolerance float64) uint8 {
	return facingBits(d, AxisZ, tolerance)
}

// FacingLabels renders facing bits as direction labels.
func FacingLabels(bits uint8) []string { return labels(bits, facingLabels) }

// cardinal points on the unit sphere, in bit order.
var cardinalPoints = []geom.Vector{
	{Z: 1},  // up
	{Z: -1}, // down
	{Y: -1}, // right
	{Y: 1},  // left
	{X: 1},  // forward
	{X: -1}, // backward
}

// PointingBits tests the pointing direction against all six cardinal
// points.
func PointingBits(d *datagram.Datagram, forward geom.Vector, threshold float64) uint8 {
	at := PointingAt(d, forward).Normalize()
	var bits uint8
	for i, p := range cardinalPoints {
		if at.Dist(p) < threshold {
			bits |= 1 << i
		}
	}
	return bits
}

// PointingLabels renders pointing bits as direction labels.
func PointingLabels(bits uint8) []string { return labels(bits, sixLabels) }
