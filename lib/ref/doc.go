// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package ref defines the identifier types shared by every layer of
// the task engine: peers, tasks, lists, and groups.
//
// All four identifiers are 32-byte values. Inside the process they
// are fixed-size arrays, comparable and usable as map keys. At any
// external boundary (wire payloads, persisted snapshots, CLI
// arguments) they are exchanged as 64-character lowercase hex
// strings. Parsing is strict: anything that is not exactly 64
// lowercase hex characters is rejected with [ErrInvalidIdentifier],
// so malformed input is caught at the edge rather than deep inside
// merge or storage code.
//
// Task and list identifiers are derived rather than random: a BLAKE3
// keyed hash over the creator, the creation timestamp, and the
// initial title binds the identifier to its creation event. Replicas
// that independently create similar tasks get distinct identifiers,
// while a task replicated through deltas keeps its identity on every
// peer.
package ref
