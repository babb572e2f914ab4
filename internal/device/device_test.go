// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gomugic/internal/datagram"
	"github.com/relabs-tech/gomugic/internal/geom"
)

// clock is an injectable time source so timeout behavior is testable
// without sleeping.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDevice(opt Options) (*Device, *clock) {
	dev := New(opt)
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	dev.now = c.now
	dev.det.lastUpdate = c.t
	return dev, c
}

func ingest(t *testing.T, dev *Device, c *clock, d datagram.Datagram) {
	t.Helper()
	c.advance(20 * time.Millisecond)
	require.NoError(t, dev.Ingest(dev.Schema().Values(&d)))
}

func TestIngest(t *testing.T) {
	t.Parallel()

	t.Run("schema mismatch leaves state untouched", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		err := dev.Ingest([]float64{1, 2, 3})
		require.Error(t, err)
		assert.ErrorIs(t, err, datagram.ErrSchemaMismatch)
		assert.False(t, dev.Connected())
		_, ok := dev.Peek(true, 0)
		assert.False(t, ok)
	})

	t.Run("working buffer evicts oldest at capacity", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Schema: datagram.IMU9Axis, BufferSize: 3})
		for i := 1; i <= 4; i++ {
			ingest(t, dev, c, datagram.Datagram{GX: float64(i), QW: 1})
		}
		out := dev.DrainAll(true)
		require.Len(t, out, 3)
		assert.Equal(t, 2.0, out[0].GX)
		assert.Equal(t, 3.0, out[1].GX)
		assert.Equal(t, 4.0, out[2].GX)
	})

	t.Run("capacity is capped", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Schema: datagram.IMU9Axis, BufferSize: 100})
		for i := 0; i < 40; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1})
		}
		assert.Len(t, dev.DrainAll(true), workingLimit)
	})
}

func TestTransform(t *testing.T) {
	t.Parallel()

	t.Run("modern removes gravity and flips roll", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AZ: 9.81, EZ: 12})
		d, ok := dev.Peek(true, 1)
		require.True(t, ok)
		assert.InDelta(t, 0, d.AZ, 1e-9)
		assert.Equal(t, -12.0, d.EZ)
	})

	t.Run("gravity removal follows orientation", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{})
		// Rolled 90 degrees about X: gravity shows up on the body Y axis.
		q := geom.Rotator(math.Pi/2, geom.Vector{X: 1})
		var rec datagram.Datagram
		rec.SetQuat(q)
		g := geom.Vector{Z: 9.81}.Rotate(q.Inverse())
		rec.AX, rec.AY, rec.AZ = g.X, g.Y, g.Z
		ingest(t, dev, c, rec)
		d, ok := dev.Peek(true, 1)
		require.True(t, ok)
		assert.InDelta(t, 0, d.AX, 1e-9)
		assert.InDelta(t, 0, d.AY, 1e-9)
		assert.InDelta(t, 0, d.AZ, 1e-9)
	})

	t.Run("legacy flips quaternion axes and pitch", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		ingest(t, dev, c, datagram.Datagram{QW: 0.9, QX: 0.2, QZ: 0.3, EY: 10, AZ: 1})
		d, ok := dev.Peek(true, 1)
		require.True(t, ok)
		assert.Equal(t, -0.2, d.QX)
		assert.Equal(t, -0.3, d.QZ)
		assert.Equal(t, -10.0, d.EY)
		// Legacy hardware already reports gravity-free acceleration.
		assert.Equal(t, 1.0, d.AZ)
	})
}

func TestPeekPop(t *testing.T) {
	t.Parallel()

	t.Run("peek returns newest without consuming", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		for i := 1; i <= 3; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i), SeqNum: float64(i)})
		}
		d, ok := dev.Peek(true, 1)
		require.True(t, ok)
		assert.Equal(t, 3.0, d.AX)
		d, ok = dev.Peek(true, 1)
		require.True(t, ok)
		assert.Equal(t, 3.0, d.AX)
	})

	t.Run("pop consumes the newest record", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		for i := 1; i <= 3; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i)})
		}
		d, ok := dev.Pop(true, 1)
		require.True(t, ok)
		assert.Equal(t, 3.0, d.AX)
		d, ok = dev.Peek(true, 1)
		require.True(t, ok)
		assert.Equal(t, 2.0, d.AX)
	})

	t.Run("empty buffer", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		_, ok := dev.Peek(true, 1)
		assert.False(t, ok)
		_, ok = dev.Pop(true, 1)
		assert.False(t, ok)
	})
}

func TestSmoothing(t *testing.T) {
	t.Parallel()

	t.Run("averages fields and keeps newest sequence numbers", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		for i := 1; i <= 3; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i), SeqNum: float64(i)})
		}
		d, ok := dev.Peek(true, 3)
		require.True(t, ok)
		assert.InDelta(t, 2.0, d.AX, 1e-9)
		assert.Equal(t, 3.0, d.SeqNum)
		assert.Equal(t, uint64(3), d.LocalSeq)
	})

	t.Run("window larger than buffer uses what is there", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 4})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 8})
		d, ok := dev.Peek(true, 10)
		require.True(t, ok)
		assert.InDelta(t, 6.0, d.AX, 1e-9)
	})

	t.Run("smoothed orientation stays unit length", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		var a, b datagram.Datagram
		a.SetQuat(geom.Rotator(0.2, geom.Vector{Z: 1}))
		b.SetQuat(geom.Rotator(0.4, geom.Vector{Z: 1}))
		ingest(t, dev, c, a)
		ingest(t, dev, c, b)
		d, ok := dev.Peek(true, 2)
		require.True(t, ok)
		assert.InDelta(t, 1.0, d.Quat().Norm(), 1e-9)
	})
}

func TestCalibrate(t *testing.T) {
	t.Parallel()

	t.Run("zeroes orientation but not measurements", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		var rec datagram.Datagram
		rec.SetQuat(geom.Rotator(math.Pi/3, geom.Vector{Z: 1}))
		rec.EX, rec.AX = 30, 1.5
		ingest(t, dev, c, rec)
		dev.Calibrate(nil)

		d, ok := dev.Peek(false, 1)
		require.True(t, ok)
		cq := d.Quat()
		assert.InDelta(t, 1, cq.W, 1e-9)
		assert.InDelta(t, 0, cq.Z, 1e-9)
		assert.InDelta(t, 0, d.EX, 1e-9)
		// Accelerometer offsets are never captured.
		assert.InDelta(t, 1.5, d.AX, 1e-9)
	})

	t.Run("empty buffer keeps previous reference", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		before := dev.Zero()
		dev.Calibrate(nil)
		assert.Equal(t, before, dev.Zero())
	})

	t.Run("explicit reference forces status offsets to zero", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		ref := datagram.Datagram{QW: 1, EX: 100, AX: 9, MV: 3700, Battery: 80, SeqNum: 7}
		dev.Calibrate(&ref)
		z := dev.Zero()
		assert.Equal(t, 100.0, z.EX)
		assert.Equal(t, 0.0, z.AX)
		assert.Equal(t, 0.0, z.MV)
		assert.Equal(t, 0.0, z.Battery)
		assert.Equal(t, 0.0, z.SeqNum)
	})

	t.Run("euler angles wrap into [0,360)", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		dev.Calibrate(&datagram.Datagram{QW: 1, EX: 30})
		ingest(t, dev, c, datagram.Datagram{QW: 1, EX: 10})
		d, ok := dev.Peek(false, 1)
		require.True(t, ok)
		assert.InDelta(t, 340.0, d.EX, 1e-9)
	})
}

func TestAutoDetect(t *testing.T) {
	t.Parallel()

	t.Run("high mV switches to legacy conventions", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{})
		ingest(t, dev, c, datagram.Datagram{QW: 1, MV: 3700})
		assert.False(t, dev.Legacy())
		dev.Calibrate(nil)
		assert.True(t, dev.Legacy())
	})

	t.Run("low mV switches back", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		ingest(t, dev, c, datagram.Datagram{QW: 1, MV: 50})
		dev.Calibrate(nil)
		assert.False(t, dev.Legacy())
	})
}

func TestConnected(t *testing.T) {
	t.Parallel()

	t.Run("never ingested", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		assert.False(t, dev.Connected())
	})

	t.Run("timeout drains the working buffer", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{})
		ingest(t, dev, c, datagram.Datagram{QW: 1})
		assert.True(t, dev.Connected())

		c.advance(6 * time.Second)
		assert.False(t, dev.Connected())
		_, ok := dev.Peek(true, 1)
		assert.False(t, ok)
		_, ok = dev.Next(true, 1)
		assert.False(t, ok)
	})

	t.Run("re-connection is implicit", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{})
		ingest(t, dev, c, datagram.Datagram{QW: 1})
		c.advance(6 * time.Second)
		assert.False(t, dev.Connected())
		ingest(t, dev, c, datagram.Datagram{QW: 1})
		assert.True(t, dev.Connected())
	})
}

func TestNext(t *testing.T) {
	t.Parallel()

	t.Run("dedup is keyed on the local sequence counter", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		// Device-reported seqnum repeats; the local counter still
		// advances, so the second record counts as new.
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 1, SeqNum: 5})
		first, ok := dev.Next(true, 1)
		require.True(t, ok)
		assert.Equal(t, 1.0, first.AX)

		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 2, SeqNum: 5})
		second, ok := dev.Next(true, 1)
		require.True(t, ok)
		assert.Equal(t, 2.0, second.AX)
		assert.NotEqual(t, first.LocalSeq, second.LocalSeq)
	})

	t.Run("nothing new returns the previous record", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 1})
		a, ok := dev.Next(true, 1)
		require.True(t, ok)
		b, ok := dev.Next(true, 1)
		require.True(t, ok)
		assert.Equal(t, a, b)
	})

	t.Run("zero window selects the configured default", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true, SmoothWindow: 2})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 4})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 8})
		d, ok := dev.Next(true, 0)
		require.True(t, ok)
		assert.InDelta(t, 6.0, d.AX, 1e-9)
	})
}

func TestCollapse(t *testing.T) {
	t.Parallel()

	t.Run("keeps only the newest record", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true, ReserveSize: -1})
		for i := 1; i <= 3; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i)})
		}
		d, ok := dev.Collapse()
		require.True(t, ok)
		assert.Equal(t, 3.0, d.AX)

		session := dev.Session()
		require.Len(t, session, 1)
		assert.Equal(t, 3.0, session[0].AX)
		// Re-ingestion assigns a fresh local sequence number.
		assert.Equal(t, uint64(4), session[0].LocalSeq)
	})

	t.Run("empty buffer", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		_, ok := dev.Collapse()
		assert.False(t, ok)
	})
}

func TestSession(t *testing.T) {
	t.Parallel()

	t.Run("reserve outlives working buffer eviction", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true, BufferSize: 2, ReserveSize: -1})
		for i := 1; i <= 4; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i)})
		}
		session := dev.Session()
		require.Len(t, session, 4)
		for i, d := range session {
			assert.Equal(t, float64(i+1), d.AX)
		}
	})

	t.Run("bounded reserve keeps the newest", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true, BufferSize: 2, ReserveSize: 3})
		for i := 1; i <= 5; i++ {
			ingest(t, dev, c, datagram.Datagram{QW: 1, AX: float64(i)})
		}
		session := dev.Session()
		require.Len(t, session, 3)
		assert.Equal(t, 3.0, session[0].AX)
		assert.Equal(t, 5.0, session[2].AX)
	})

	t.Run("no reserve falls back to the working buffer", func(t *testing.T) {
		t.Parallel()
		dev, c := newTestDevice(Options{Legacy: true})
		ingest(t, dev, c, datagram.Datagram{QW: 1, AX: 1})
		assert.Len(t, dev.Session(), 1)
	})
}

func TestAbsolute(t *testing.T) {
	t.Parallel()

	t.Run("acceleration rotates into the world frame", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		var d datagram.Datagram
		d.SetQuat(geom.Rotator(math.Pi/2, geom.Vector{Z: 1}))
		d.AX = 1
		got := dev.AbsoluteAccel(&d, true)
		assert.InDelta(t, 0, got.X, 1e-9)
		assert.InDelta(t, 1, got.Y, 1e-9)
		assert.InDelta(t, 0, got.Z, 1e-9)
	})

	t.Run("calibrated heading is applied first", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{})
		// Zero reference headed 90 degrees off.
		dev.Calibrate(&datagram.Datagram{QW: 1, EX: 90})
		d := datagram.Datagram{QW: 1, AX: 1}
		got := dev.AbsoluteAccel(&d, false)
		assert.InDelta(t, 0, got.X, 1e-9)
		assert.InDelta(t, 1, got.Y, 1e-9)
	})

	t.Run("gyro undoes legacy quaternion corrections", func(t *testing.T) {
		t.Parallel()
		dev, _ := newTestDevice(Options{Legacy: true})
		var d datagram.Datagram
		// Stored with legacy-corrected axes; AbsoluteGyro flips them
		// back before rotating.
		q := geom.Rotator(math.Pi/2, geom.Vector{Z: 1})
		d.SetQuat(q)
		d.QX, d.QZ = -d.QX, -d.QZ
		d.GX = 1
		got := dev.AbsoluteGyro(&d, true)
		assert.InDelta(t, 0, got.X, 1e-9)
		assert.InDelta(t, 1, got.Y, 1e-9)
	})
}
