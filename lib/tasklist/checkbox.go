// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// ClaimKind is the closed set of record kinds a checkbox accumulates.
// The set is fixed; records with any other kind are preserved through
// merges but ignored by the reduction.
type ClaimKind uint8

const (
	// KindClaimed records that an agent took the task.
	KindClaimed ClaimKind = 1
	// KindDone records that an agent completed the task.
	KindDone ClaimKind = 2
)

// CheckboxState is the reduced, visible state of a checkbox.
type CheckboxState uint8

const (
	// StateEmpty means no claim or completion record exists.
	StateEmpty CheckboxState = iota
	// StateClaimed means the task is taken but not completed.
	StateClaimed
	// StateDone means the task is completed.
	StateDone
)

// String returns the lowercase display name of the state.
func (s CheckboxState) String() string {
	switch s {
	case StateClaimed:
		return "claimed"
	case StateDone:
		return "done"
	default:
		return "empty"
	}
}

// ClaimRecord is one claim or completion event. Agent is the
// identity doing the claiming, which the caller may distinguish from
// the replica peer recording it. Time is wall-clock milliseconds
// captured at the moment of the call; it is the cross-replica
// comparison key, never a sequence number, because sequence numbers
// from different replicas are not mutually comparable.
type ClaimRecord struct {
	Kind  ClaimKind  `cbor:"kind"`
	Agent ref.PeerID `cbor:"agent"`
	Time  int64      `cbor:"time"`
}

// Checkbox accumulates claim and completion records. Records are
// only ever added; a claim on an already-done task is recorded and
// simply loses the reduction. There is no invalid transition and no
// error path here.
type Checkbox struct {
	Records crdt.OrSet[ClaimRecord] `cbor:"records"`
}

// Record adds a claim or completion record tagged with the given
// event dot. The dot keeps replayed records from duplicating; it
// plays no part in conflict ordering.
func (c *Checkbox) Record(dot crdt.Dot, record ClaimRecord) {
	c.Records.Add(dot, record)
}

// State reduces the accumulated records to the visible state and the
// winning record. Done outranks Claimed outranks Empty; within a
// kind the earliest timestamp wins, with ties going to the bytewise
// smaller agent ID. The winning record is the zero value when the
// state is empty.
func (c *Checkbox) State() (CheckboxState, ClaimRecord) {
	var winner ClaimRecord
	state := StateEmpty

	consider := func(record ClaimRecord, recordState CheckboxState) {
		if recordState < state {
			return
		}
		if recordState > state {
			state = recordState
			winner = record
			return
		}
		if record.Time != winner.Time {
			if record.Time < winner.Time {
				winner = record
			}
			return
		}
		if record.Agent.Compare(winner.Agent) < 0 {
			winner = record
		}
	}

	for _, record := range c.Records.Values() {
		switch record.Kind {
		case KindDone:
			consider(record, StateDone)
		case KindClaimed:
			consider(record, StateClaimed)
		}
	}
	return state, winner
}

// Merge folds the other checkbox's records into this one.
func (c *Checkbox) Merge(other Checkbox) {
	c.Records.Merge(other.Records)
}

// ProduceDelta returns the records the holder of the given version
// vector has not observed.
func (c *Checkbox) ProduceDelta(since crdt.Version) Checkbox {
	return Checkbox{Records: c.Records.ProduceDelta(since)}
}

// Empty reports whether the checkbox carries no records.
func (c *Checkbox) Empty() bool {
	return c.Records.Empty()
}

// Dots appends every event dot recorded in the checkbox to out.
func (c *Checkbox) Dots(out []crdt.Dot) []crdt.Dot {
	return c.Records.Dots(out)
}
