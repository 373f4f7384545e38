// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to a snapshot
// payload. The tag is stored in the snapshot envelope; its values
// are format constants and must not be renumbered.
type CompressionTag uint8

const (
	// CompressionNone stores the payload uncompressed. Also the
	// automatic fallback when a payload is incompressible.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 applies LZ4 block compression: fast with a
	// modest ratio, the default for snapshot payloads.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd applies zstd at its default level: a better
	// ratio for large, text-heavy lists at more CPU.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's display name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a tag from its display name.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("unknown compression tag %q (expected none, lz4, or zstd)", name)
}

// zstdEncoder and zstdDecoder are shared across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("taskstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("taskstore: zstd decoder initialization failed: " + err.Error())
	}
}

// compressPayload compresses data under the requested tag, falling
// back to CompressionNone when the result would not be smaller.
// Returns the stored bytes and the tag actually used.
func compressPayload(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		compressed := make([]byte, bound)
		written, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil
	}
	return nil, 0, fmt.Errorf("unsupported compression tag %d", uint8(tag))
}

// decompressPayload reverses compressPayload. The expected
// uncompressed size comes from the snapshot envelope and is enforced
// exactly.
func decompressPayload(stored []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, envelope says %d", len(stored), uncompressedSize)
		}
		return stored, nil

	case CompressionLZ4:
		payload := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(stored, payload)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress produced %d bytes, envelope says %d", read, uncompressedSize)
		}
		return payload, nil

	case CompressionZstd:
		payload, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress produced %d bytes, envelope says %d", len(payload), uncompressedSize)
		}
		return payload, nil
	}
	return nil, fmt.Errorf("unsupported compression tag %d", uint8(tag))
}
