// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"fmt"

	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// Delta is the state a receiving replica is missing: a fragment with
// the same shape as the list itself. Applying a delta is a plain
// merge, so duplicates and reordering are harmless.
type Delta struct {
	// List identifies the list this fragment was produced from.
	// Apply refuses fragments from any other list.
	List ref.ListID `cbor:"list"`

	// Vector is the producer's version vector at production time.
	// Receivers use it to judge staleness cheaply ("does the sender
	// know anything I don't"); it is informational and never merged
	// into the receiver's own vector, which only ever advances by
	// observing concrete event dots.
	Vector crdt.Version `cbor:"vector,omitempty"`

	// Name carries the list-name register when the receiver has not
	// observed its write.
	Name crdt.Register[string] `cbor:"name"`

	// Tasks carries membership changes: unobserved add events and
	// unobserved removal tombstones.
	Tasks crdt.OrSet[ref.TaskID] `cbor:"tasks"`

	// Items carries per-task fragments, keyed by task ID. Every
	// fragment includes the task's creation metadata so a replica
	// that has never seen the task can adopt it whole.
	Items map[ref.TaskID]*TaskItem `cbor:"items,omitempty"`

	// Positions carries ordering writes the receiver has not
	// observed.
	Positions map[ref.TaskID]crdt.Register[uint64] `cbor:"positions,omitempty"`
}

// Empty reports whether the delta carries no changes at all. An
// empty delta is the producer's way of saying the receiver is caught
// up; it is not broadcast.
func (d *Delta) Empty() bool {
	return !d.Name.IsSet() &&
		d.Tasks.Empty() &&
		len(d.Items) == 0 &&
		len(d.Positions) == 0
}

// Encode serializes the delta to deterministic CBOR.
func (d *Delta) Encode() ([]byte, error) {
	data, err := codec.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding delta: %w", err)
	}
	return data, nil
}

// DecodeDelta deserializes a delta payload. Identifier fields pass
// through strict hex validation during decoding, so a malformed
// payload surfaces ref.ErrInvalidIdentifier here rather than
// corrupting state downstream.
func DecodeDelta(data []byte) (*Delta, error) {
	var delta Delta
	if err := codec.Unmarshal(data, &delta); err != nil {
		return nil, fmt.Errorf("decoding delta: %w", err)
	}
	if delta.List.IsZero() {
		return nil, fmt.Errorf("decoding delta: %w: missing list ID", ref.ErrInvalidIdentifier)
	}
	return &delta, nil
}

// CoveredBy reports whether v already contains every event dot the
// delta carries. Applying a covered delta to a list with that vector
// changes nothing.
func (d *Delta) CoveredBy(v crdt.Version) bool {
	for _, dot := range d.dots(nil) {
		if !v.Contains(dot) {
			return false
		}
	}
	return true
}

// dots appends every event dot the delta carries to out. Applying a
// delta observes exactly these dots into the list's vector.
func (d *Delta) dots(out []crdt.Dot) []crdt.Dot {
	if d.Name.IsSet() {
		out = append(out, d.Name.Dot)
	}
	out = d.Tasks.Dots(out)
	for _, item := range d.Items {
		out = item.Dots(out)
	}
	for _, position := range d.Positions {
		if position.IsSet() {
			out = append(out, position.Dot)
		}
	}
	return out
}
