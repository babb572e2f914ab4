// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import "github.com/relabs-tech/gomugic/internal/datagram"

// smoothLocked averages the given records (newest first) field by
// field and renormalizes the orientation quaternion. Straight
// component averaging is only a valid approximation for samples that
// are already close together, which holds at the device's sampling
// rate; it is not a spherical interpolation. The result carries the
// newest record's sequence numbers and is calibrated unless raw is
// set.
func (dev *Device) smoothLocked(records []datagram.Datagram, raw bool) datagram.Datagram {
	sm := records[0]
	if len(records) > 1 {
		for _, r := range records[1:] {
			for _, f := range dev.schema.Fields {
				f.Set(&sm, f.Get(&sm)+f.Get(&r))
			}
		}
		n := float64(len(records))
		for _, f := range dev.schema.Fields {
			f.Set(&sm, f.Get(&sm)/n)
		}
		sm.SetQuat(sm.Quat().Normalize())
		// Averaged sequence numbers mean nothing; keep the newest.
		sm.SeqNum = records[0].SeqNum
		sm.LocalSeq = records[0].LocalSeq
	}
	if !raw {
		dev.calibrateLocked(&sm)
	}
	return sm
}
