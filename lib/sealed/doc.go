// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package sealed protects deltas crossing the untrusted relay
// network. A delta is encoded to deterministic CBOR and sealed with
// XChaCha20-Poly1305 under the symmetric key of a (group, epoch)
// pair; the group ID and epoch travel in cleartext at the head of
// the payload and are bound into the AEAD associated data, so a
// recipient can route a payload to the right key without being able
// to forge, splice, or replay it under a different group or epoch.
//
// Keys come from a [KeyProvider], the boundary to the external group
// key-schedule. The epoch is a monotonically increasing key
// generation counter: rotating the group secret advances the epoch
// and retires every key derived for earlier ones, which is what
// gives the relay traffic forward secrecy.
//
// Every failure path is loud and total: [Open] returns
// [ErrGroupMismatch], [ErrEpochMismatch], [ErrKeyUnavailable], or
// [ErrAuthenticationFailed] and never any partial plaintext.
package sealed
