// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package replica runs one peer's live copy of a task list. The
// Engine owns the pieces the pure layers deliberately do not: the
// peer identity and its dot sequence, the wall clock, the single-
// writer lock over the list, the persistence hookup, and the
// transport fan-out.
//
// Mutations — local API calls and inbound remote deltas alike — are
// serialized by a write lock and commit in memory first. Everything
// that can suspend (sealing keys, blob I/O, broadcast) happens after
// the lock is released, so a slow disk or an unreachable relay can
// delay durability and propagation but never corrupt or block the
// in-memory state.
//
// Consumers observe changes through [Engine.Watch]: a coalescing
// "state changed, re-read" signal, never an incremental patch. A
// notification may race with a later merge; the snapshot read after
// it is always current.
package replica
