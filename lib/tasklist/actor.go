// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// Actor issues the event dots for one replica's local mutations. It
// holds the peer identity and the next sequence number as explicit
// state owned by the caller; nothing in the merge core reads a
// counter it did not receive as an argument.
//
// Actor is not safe for concurrent use. lib/replica.Engine issues
// dots under its write lock; standalone callers must do the same.
type Actor struct {
	peer ref.PeerID
	// last is the highest sequence number issued so far. Sequence
	// numbers start at 1; zero marks the zero dot.
	last uint64
}

// NewActor returns an actor for the given peer starting at sequence
// one.
func NewActor(peer ref.PeerID) *Actor {
	return &Actor{peer: peer}
}

// Peer returns the actor's peer identity.
func (a *Actor) Peer() ref.PeerID { return a.peer }

// Next issues the next event dot.
func (a *Actor) Next() crdt.Dot {
	a.last++
	return crdt.Dot{Peer: a.peer, Seq: a.last}
}

// Resume advances the actor past every own-peer sequence number the
// vector has observed. Called after loading persisted state so the
// actor never re-issues a dot that already tags an event; the
// durable log makes the vector's own entry exact.
func (a *Actor) Resume(observed crdt.Version) {
	if seq := observed[a.peer]; seq > a.last {
		a.last = seq
	}
}
