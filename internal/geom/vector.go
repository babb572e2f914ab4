// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geom

import "math"

// mdelta is the minimum magnitude considered significant; vectors and
// quaternions below it are treated as degenerate.
const mdelta = 0.001

// Vector is a 3-component spatial vector (X, Y, Z).
type Vector struct {
	X, Y, Z float64
}

func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean magnitude of the vector.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize scales the vector to unit length. A degenerate vector
// normalizes to the zero vector.
func (v Vector) Normalize() Vector {
	m := v.Norm()
	if m < mdelta {
		return Vector{}
	}
	return v.Scale(1 / m)
}

// Dist returns the Euclidean distance between two points.
func (v Vector) Dist(o Vector) float64 {
	return v.Sub(o).Norm()
}

// Axis returns component i (0=X, 1=Y, 2=Z).
func (v Vector) Axis(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// SetAxis sets component i (0=X, 1=Y, 2=Z).
func (v *Vector) SetAxis(i int, val float64) {
	switch i {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
}

// Rotate applies the rotation represented by q to the vector,
// computing q * v * q^-1 with v as a pure quaternion.
func (v Vector) Rotate(q Quaternion) Vector {
	p := Quaternion{0, v.X, v.Y, v.Z}
	r := q.Mul(p).Mul(q.Inverse())
	return Vector{r.X, r.Y, r.Z}
}
