// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// Two serialization formats appear in this codebase, with a clear
// boundary:
//
//   - CBOR for replicated and persisted data: delta payloads before
//     sealing, snapshot envelopes, delta-log records, keyring files,
//     and sync export streams.
//   - JSON (and JSONC for hand-edited input) at the CLI surface
//     only: --json output and task import files.
//
// This package provides the shared CBOR encoding and decoding modes
// so that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces
// identical bytes, which keeps snapshot hashes and delta payloads
// stable across replicas.
//
// For buffer-oriented operations (snapshots, log records, keyrings):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sync export files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is only ever serialized as CBOR.
//     Examples: delta payloads, snapshot envelopes, log records.
//   - `json` tag: this type may be serialized as both JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: CLI --json output
//     types, import file schemas.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract.
package codec
