// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package crdt

import "github.com/saorsa-labs/x0x-go/lib/ref"

// Version is a version vector: for each peer, the highest sequence
// number this replica has observed from that peer. A nil Version is
// a valid empty vector for reads; use Observe or Merge through a
// non-nil map to record progress.
//
// The vector answers "has this replica seen event X" and "does the
// remote need anything from us". It deliberately replaces any
// count-based staleness proxy: counts can coincide while contents
// differ, vectors cannot.
type Version map[ref.PeerID]uint64

// NewVersion returns an empty, writable version vector.
func NewVersion() Version { return make(Version) }

// Contains reports whether the vector covers the given dot, meaning
// an event with that peer and sequence number has been observed. The
// zero dot is vacuously contained.
func (v Version) Contains(d Dot) bool {
	return v[d.Peer] >= d.Seq
}

// Observe records the dot in the vector if it advances that peer's
// high-water mark.
func (v Version) Observe(d Dot) {
	if d.Seq > v[d.Peer] {
		v[d.Peer] = d.Seq
	}
}

// Merge folds other into v, keeping the per-peer maximum.
func (v Version) Merge(other Version) {
	for peer, seq := range other {
		if seq > v[peer] {
			v[peer] = seq
		}
	}
}

// Clone returns an independent copy of the vector.
func (v Version) Clone() Version {
	if v == nil {
		return nil
	}
	clone := make(Version, len(v))
	for peer, seq := range v {
		clone[peer] = seq
	}
	return clone
}

// Equal reports whether two vectors cover exactly the same events.
// Entries with sequence zero are ignored; they carry no information.
func (v Version) Equal(other Version) bool {
	for peer, seq := range v {
		if seq != 0 && other[peer] != seq {
			return false
		}
	}
	for peer, seq := range other {
		if seq != 0 && v[peer] != seq {
			return false
		}
	}
	return true
}
