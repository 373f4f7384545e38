// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package taskstore persists replicated task lists. Each list owns a
// snapshot lineage plus one append-only delta log: the snapshot is
// the full list state at a capture time, and the log holds every
// delta applied since. Loading replays the newest snapshot and then
// the log in order; because delta application is idempotent, a log
// record that was already folded into the snapshot replays
// harmlessly.
//
// Durable bytes live behind the [Storage] interface, with two
// backends: a directory of files with atomic write-then-rename
// installs and a flock single-writer guard, and a SQLite database
// for embedders that want one file and transactional appends.
//
// Snapshots are wrapped in an envelope carrying a schema version,
// the codec identity, a compression tag, and a BLAKE3 integrity
// digest. Any mismatch fails the load with [ErrCorruptSnapshot];
// a damaged snapshot is never partially reconstructed.
//
// [CheckpointScheduler] decides when a dirty list is worth a new
// snapshot, trading log replay time against snapshot write cost, and
// [Store.SaveSnapshot] applies a keep-newest retention policy to the
// lineage it extends.
package taskstore
