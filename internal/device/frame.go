// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"math"
	"time"

	"github.com/relabs-tech/gomugic/internal/geom"
)

// frameEntry is one completed accelerate/decelerate cycle on an axis:
// the rising-edge acceleration and how long the cycle took.
type frameEntry struct {
	rise float64
	dur  float64 // seconds
}

// frameDetector tracks pairs of opposite acceleration peaks per axis.
// A rising edge followed by a falling edge of opposite sign within the
// frame window is committed as a movement frame entry, the closest
// approximation to a directional swing available without double
// integration.
type frameDetector struct {
	delta    float64    // assumed max acceleration noise between records
	lowPass  [3]float64 // per-axis noise floor
	maxFrame time.Duration

	rising    geom.Vector
	falling   geom.Vector
	lastAccel geom.Vector
	lastDeriv geom.Vector

	frame      [3]frameEntry
	lastUpdate time.Time
}

func newFrameDetector(delta float64, lowPass [3]float64, maxFrame time.Duration, now time.Time) frameDetector {
	return frameDetector{
		delta:      delta,
		lowPass:    lowPass,
		maxFrame:   maxFrame,
		lastUpdate: now,
	}
}

// reset clears all edge state and committed frames.
func (f *frameDetector) reset(now time.Time) {
	f.rising = geom.Vector{}
	f.falling = geom.Vector{}
	f.lastAccel = geom.Vector{}
	f.lastDeriv = geom.Vector{}
	f.frame = [3]frameEntry{}
	f.lastUpdate = now
}

// resetFrame clears the committed frame entries only; edge state is
// untouched so an in-flight swing can still complete.
func (f *frameDetector) resetFrame() {
	f.frame = [3]frameEntry{}
}

// Frame returns rising acceleration times elapsed duration per axis, a
// pseudo-impulse rather than a true velocity.
func (f *frameDetector) Frame() [3]float64 {
	var out [3]float64
	for i, e := range f.frame {
		out[i] = e.rise * e.dur
	}
	return out
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// update advances the per-axis state machines with one world-frame
// acceleration sample. Peaks and valleys are found where the
// derivative of acceleration crosses zero.
func (f *frameDetector) update(accel geom.Vector, now time.Time) {
	mag := accel.Norm()
	deriv := accel.Sub(f.lastAccel)
	derivLong := deriv.Add(f.lastDeriv).Scale(0.5)
	f.lastDeriv = deriv
	f.lastAccel = accel

	for i := 0; i < 3; i++ {
		a := accel.Axis(i)
		// Below the noise floor, or not a major component of the
		// overall motion.
		if math.Abs(a) < f.lowPass[i] {
			continue
		}
		if math.Abs(a) < math.Floor(mag/9) {
			continue
		}
		// Expired window or a stale completed cycle: start fresh.
		if now.Sub(f.lastUpdate) > f.maxFrame ||
			(f.rising.Axis(i) != 0 && f.falling.Axis(i) != 0) {
			f.rising.SetAxis(i, 0)
			f.falling.SetAxis(i, 0)
			f.lastUpdate = now
		}
		// Only peaks and valleys qualify as edges.
		if !(math.Abs(deriv.Axis(i)) <= f.delta || math.Abs(derivLong.Axis(i)) <= f.delta) {
			continue
		}
		if f.rising.Axis(i) == 0 {
			f.rising.SetAxis(i, a)
			f.lastUpdate = now
		} else if f.falling.Axis(i) == 0 {
			// A true falling edge opposes the rising edge and is far
			// enough away to be a real swing.
			if sign(a) == sign(f.rising.Axis(i)) {
				continue
			}
			if math.Abs(a-f.rising.Axis(i)) <= f.lowPass[i] {
				continue
			}
			f.falling.SetAxis(i, a)
			f.frame[i] = frameEntry{
				rise: f.rising.Axis(i),
				dur:  now.Sub(f.lastUpdate).Seconds(),
			}
		}
	}
}
