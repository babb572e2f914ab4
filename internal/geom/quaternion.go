// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geom

import "math"

// Quaternion is a rotation in (w, x, y, z) form. Only unit quaternions
// represent valid orientations; callers are expected to Normalize after
// any arithmetic that can drift off the unit sphere.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Rotator builds the unit quaternion for a rotation of angle radians
// about the given axis.
func Rotator(angle float64, axis Vector) Quaternion {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quaternion{
		W: math.Cos(angle / 2),
		X: a.X * s,
		Y: a.Y * s,
		Z: a.Z * s,
	}
}

// Mul returns the Hamilton product q * o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Norm returns the quaternion magnitude.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize scales the quaternion to unit length. A degenerate
// quaternion normalizes to the identity so it can never poison
// downstream rotation math.
func (q Quaternion) Normalize() Quaternion {
	m := q.Norm()
	if m < mdelta {
		return Identity()
	}
	return Quaternion{q.W / m, q.X / m, q.Y / m, q.Z / m}
}

// Inverse returns the multiplicative inverse. For unit quaternions this
// is the conjugate; the general form divides by the squared norm.
func (q Quaternion) Inverse() Quaternion {
	n := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	if n < mdelta*mdelta {
		return Identity()
	}
	return Quaternion{q.W / n, -q.X / n, -q.Y / n, -q.Z / n}
}

// Nlerp linearly interpolates toward o by ratio and renormalizes.
// Valid as a cheap slerp substitute when the endpoints are close.
func (q Quaternion) Nlerp(o Quaternion, ratio float64) Quaternion {
	return Quaternion{
		W: q.W + ratio*(o.W-q.W),
		X: q.X + ratio*(o.X-q.X),
		Y: q.Y + ratio*(o.Y-q.Y),
		Z: q.Z + ratio*(o.Z-q.Z),
	}.Normalize()
}
