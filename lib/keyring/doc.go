// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package keyring is the shipped [sealed.KeyProvider]: a passphrase-
// protected file of group master secrets with per-epoch key
// derivation.
//
// Each replication group has one 32-byte master secret. The key for
// a (group, epoch) pair is derived on demand with HKDF-SHA256, the
// group ID and big-endian epoch mixed into the info parameter, so
// every epoch gets an independent key and compromising one epoch's
// key reveals nothing about any other. Rotating a group means
// advancing the epoch the senders seal under; the master secret
// itself only changes when a member is evicted.
//
// At rest the keyring is a deterministic-CBOR table sealed with age
// under a scrypt passphrase recipient. Load and Save take the
// passphrase as bytes; prompting for it is the caller's concern
// (the CLI uses x/term when the terminal is interactive).
package keyring
