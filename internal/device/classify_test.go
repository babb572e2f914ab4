// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/geom"
)

func TestFacing(t *testing.T) {
	t.Parallel()

	t.Run("wraparound at north", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			angle float64
			want  bool
		}{
			{350, true},
			{10, true},
			{45, true},
			{315, true},
			{46, false},
			{314, false},
			{180, false},
		}
		for _, tc := range cases {
			d := datagram.Datagram{EX: tc.angle}
			assert.Equal(t, tc.want, Facing(&d, AxisX, 0, 45), "angle %v", tc.angle)
		}
	})

	t.Run("negative angles fold into range", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{EX: -10}
		assert.True(t, Facing(&d, AxisX, 0, 45))
		assert.True(t, Facing(&d, AxisX, -90, 80))
	})

	t.Run("angles compare as whole degrees", func(t *testing.T) {
		t.Parallel()
		// 45.9 truncates to 45, inside the band; 46.1 truncates to 46.
		d := datagram.Datagram{EX: 45.9}
		assert.True(t, Facing(&d, AxisX, 0, 45))
		d.EX = 46.1
		assert.False(t, Facing(&d, AxisX, 0, 45))
	})

	t.Run("non-wrapping band", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{EY: 90}
		assert.True(t, Facing(&d, AxisY, 90, 45))
		d.EY = 140
		assert.False(t, Facing(&d, AxisY, 90, 45))
	})
}

func TestJolted(t *testing.T) {
	t.Parallel()
	d := datagram.Datagram{AX: 3, AY: 4} // magnitude 5
	assert.False(t, Jolted(&d, 5), "threshold is strict")
	assert.True(t, Jolted(&d, 4.999))
	assert.False(t, Jolted(&d, 6))
}

func TestMovingBits(t *testing.T) {
	t.Parallel()

	frame := [3]float64{0.5, -0.3, 0}
	bits := MovingBits(frame, 0.1)
	assert.Equal(t, uint8(BitForward|BitRight), bits)
	assert.ElementsMatch(t, []string{"FW", "RT"}, MovingLabels(bits))

	assert.Zero(t, MovingBits([3]float64{}, 0.1))
	assert.Empty(t, MovingLabels(0))
}

func TestRotatingBits(t *testing.T) {
	t.Parallel()

	t.Run("gyro x maps to left/right", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{GX: 90}
		bits := RotatingBits(&d, 80)
		assert.Equal(t, uint8(BitRight), bits)
		assert.Equal(t, []string{"RT"}, RotatingLabels(bits))
	})

	t.Run("gyro z maps to twist", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{GZ: -90}
		bits := RotatingBits(&d, 80)
		assert.Equal(t, uint8(BitBackward), bits)
		assert.Equal(t, []string{"TL"}, RotatingLabels(bits))
	})

	t.Run("below threshold", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{GX: 79, GY: -79, GZ: 80}
		assert.Zero(t, RotatingBits(&d, 80))
	})
}

func TestPointing(t *testing.T) {
	t.Parallel()

	t.Run("rotates the forward vector", func(t *testing.T) {
		t.Parallel()
		var d datagram.Datagram
		d.SetQuat(geom.Rotator(math.Pi/2, geom.Vector{Z: 1}))
		at := PointingAt(&d, geom.Vector{X: 1})
		assert.InDelta(t, 0, at.X, 1e-9)
		assert.InDelta(t, 1, at.Y, 1e-9)
	})

	t.Run("cardinal bits", func(t *testing.T) {
		t.Parallel()
		var d datagram.Datagram
		d.SetQuat(geom.Rotator(math.Pi/2, geom.Vector{Z: 1}))
		bits := PointingBits(&d, geom.Vector{X: 1}, 0.70)
		assert.Equal(t, uint8(BitLeft), bits)
		assert.Equal(t, []string{"LT"}, PointingLabels(bits))
	})

	t.Run("identity orientation points forward", func(t *testing.T) {
		t.Parallel()
		d := datagram.Datagram{QW: 1}
		assert.True(t, Pointing(&d, geom.Vector{X: 1}, geom.Vector{X: 1}, 0.70))
		assert.False(t, Pointing(&d, geom.Vector{X: 1}, geom.Vector{Z: 1}, 0.70))
	})
}

func TestFacingAggregates(t *testing.T) {
	t.Parallel()

	d := datagram.Datagram{EX: 0, EY: 92, EZ: 180}
	assert.Equal(t, []string{"FW"}, FacingLabels(YawingBits(&d, 10)))
	assert.Equal(t, []string{"RT"}, FacingLabels(PitchingBits(&d, 10)))
	assert.Equal(t, []string{"BW"}, FacingLabels(RollingBits(&d, 10)))
}

func TestControllerPredicates(t *testing.T) {
	t.Parallel()

	t.Run("disconnected answers false", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		assert.False(t, dev.MovingUp(nil))
		assert.False(t, dev.RotatingLeft(nil))
		assert.False(t, dev.Jolted(nil))
		assert.Zero(t, dev.Moving(nil))
		assert.Zero(t, dev.Pointing(nil))
	})

	t.Run("explicit record bypasses the buffer", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		d := datagram.Datagram{QW: 1, GX: 100, AX: 11}
		assert.True(t, dev.RotatingRight(&d))
		assert.False(t, dev.RotatingLeft(&d))
		assert.True(t, dev.Jolted(&d))
	})

	t.Run("latest record is used by default", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true, SmoothWindow: 1})
		ingest(t, dev, c, datagram.Datagram{QW: 1, GX: 100})
		assert.True(t, dev.RotatingRight(nil))
		assert.False(t, dev.TwistingRight(nil))
	})

	t.Run("movement predicates read the frame", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		for _, az := range []float64{6, 6, -6, -6} {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AZ: az})
		}
		require.NotEqual(t, [3]float64{}, dev.Frame())
		assert.True(t, dev.MovingUp(nil))
		assert.False(t, dev.MovingDown(nil))
		assert.Contains(t, MovingLabels(dev.Moving(nil)), "UP")
	})
}
