// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package tasklist implements the replicated task list: a
// conflict-free data structure that any number of disconnected
// replicas can mutate independently and reconcile by exchanging
// deltas.
//
// The structure composes the primitives from lib/crdt:
//
//   - membership is an observed-remove set of task IDs, so removing
//     a task never cancels an addition the remover had not seen;
//   - each task's checkbox is a grow-set of claim and completion
//     records reduced to a single visible state (Done outranks
//     Claimed outranks Empty, earliest record wins within a kind);
//   - title, description, assignee, and priority are
//     last-writer-wins registers, as are the list name and the
//     per-task ordering positions.
//
// All mutating methods take the event dot and wall-clock timestamp
// explicitly. The caller (normally lib/replica.Engine) owns the peer
// identity, the sequence counter, and the clock; keeping them out of
// this package makes every merge decision a pure function of its
// inputs and directly testable.
//
// A [Delta] is a fragment of the same shape as the full state.
// [TaskList.ProduceDelta] filters against a version vector and
// [TaskList.ApplyDelta] is a plain merge, so applying a delta twice,
// or applying deltas in any order, converges to the same state.
package tasklist
