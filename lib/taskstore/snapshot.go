// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// snapshotSchemaVersion is the envelope schema version. Bumped only
// for incompatible envelope changes; the codec fields version the
// payload independently.
const snapshotSchemaVersion = 1

// snapshotCodec identifies the payload encoding. A snapshot written
// by a build using a different codec is rejected rather than
// misparsed.
const (
	snapshotCodec        = "cbor"
	snapshotCodecVersion = 1
)

// snapshotEnvelope wraps a serialized list with enough metadata to
// refuse anything damaged or foreign: schema and codec identity, the
// compression applied, and a BLAKE3 digest of the payload before
// compression. Decode verifies all of it before any list state is
// reconstructed.
type snapshotEnvelope struct {
	SchemaVersion    int            `cbor:"schema_version"`
	Codec            string         `cbor:"codec"`
	CodecVersion     int            `cbor:"codec_version"`
	Compression      CompressionTag `cbor:"compression"`
	UncompressedSize int            `cbor:"uncompressed_size"`
	// Integrity is the lowercase hex BLAKE3 digest of the
	// uncompressed payload.
	Integrity string `cbor:"integrity"`
	Payload   []byte `cbor:"payload"`
}

// EncodeSnapshot serializes a full list into an integrity-protected
// snapshot blob, compressed under the requested tag (with automatic
// fallback to none for incompressible payloads).
func EncodeSnapshot(list *tasklist.TaskList, compression CompressionTag) ([]byte, error) {
	payload, err := codec.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encoding list state: %w", err)
	}

	digest := blake3.Sum256(payload)
	stored, usedTag, err := compressPayload(payload, compression)
	if err != nil {
		return nil, fmt.Errorf("compressing snapshot payload: %w", err)
	}

	envelope := snapshotEnvelope{
		SchemaVersion:    snapshotSchemaVersion,
		Codec:            snapshotCodec,
		CodecVersion:     snapshotCodecVersion,
		Compression:      usedTag,
		UncompressedSize: len(payload),
		Integrity:        hex.EncodeToString(digest[:]),
		Payload:          stored,
	}
	blob, err := codec.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot envelope: %w", err)
	}
	return blob, nil
}

// DecodeSnapshot validates and deserializes a snapshot blob. Any
// failure — unparseable envelope, unknown schema or codec, digest
// mismatch, damaged payload — matches ErrCorruptSnapshot and returns
// no state at all.
func DecodeSnapshot(blob []byte) (*tasklist.TaskList, error) {
	var envelope snapshotEnvelope
	if err := codec.Unmarshal(blob, &envelope); err != nil {
		return nil, fmt.Errorf("%w: unreadable snapshot envelope: %v", ErrCorruptSnapshot, err)
	}
	if envelope.SchemaVersion != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: snapshot schema version %d is not supported (expected %d)",
			ErrCorruptSnapshot, envelope.SchemaVersion, snapshotSchemaVersion)
	}
	if envelope.Codec != snapshotCodec || envelope.CodecVersion != snapshotCodecVersion {
		return nil, fmt.Errorf("%w: snapshot codec %s/%d is not supported (expected %s/%d)",
			ErrCorruptSnapshot, envelope.Codec, envelope.CodecVersion, snapshotCodec, snapshotCodecVersion)
	}

	payload, err := decompressPayload(envelope.Payload, envelope.Compression, envelope.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	digest := blake3.Sum256(payload)
	if hex.EncodeToString(digest[:]) != envelope.Integrity {
		return nil, fmt.Errorf("%w: snapshot integrity digest mismatch", ErrCorruptSnapshot)
	}

	var list tasklist.TaskList
	if err := codec.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("%w: unreadable list state: %v", ErrCorruptSnapshot, err)
	}
	if list.ID.IsZero() {
		return nil, fmt.Errorf("%w: snapshot has no list identity", ErrCorruptSnapshot)
	}
	return &list, nil
}
