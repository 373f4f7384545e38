// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package crdt provides the conflict-free replicated primitives the
// task engine is built from: dots, version vectors, an
// observed-remove set, and a last-writer-wins register.
//
// # Dots
//
// Every mutation event is identified by a [Dot]: the peer that
// performed it plus that peer's own sequence number. Sequence
// numbers start at 1 and increase by one per event, so a [Version]
// vector (peer to highest observed sequence) summarizes which events
// a replica has seen.
//
// # Merge semantics
//
// [OrSet] implements an observed-remove set. Additions are tagged
// with dots; a removal tombstones the specific add-dots it observed.
// An addition whose dot was never observed by a removal survives the
// merge, which is what makes concurrent add and remove converge on
// "added". Re-adding after a removal uses a fresh dot and therefore
// resurrects the element. When two replicas tombstone the same
// add-dot with different removal events, merge keeps the smaller
// removal dot so both sides converge on identical state.
//
// [Register] implements a last-writer-wins cell. Merge keeps the
// write with the larger wall-clock timestamp; an exact timestamp tie
// goes to the larger writer peer ID, compared bytewise.
//
// Both types obey the join-semilattice laws: merge is commutative,
// associative, and idempotent. Tests in this package pin those laws
// directly.
//
// # Deltas
//
// A delta is a state fragment of the same type as the full state,
// and applying a delta is simply Merge. ProduceDelta filters against
// a version vector: additions whose add-dot the vector contains and
// removals whose removal-dot it contains are omitted. The filter is
// a bandwidth optimization, never a correctness requirement;
// applying an over-full delta (including the whole state) is always
// safe because merge is idempotent.
package crdt
