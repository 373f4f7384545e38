// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"encoding/binary"
	"fmt"

	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// logBlobName is the per-list delta log blob, relative to the list's
// prefix.
const logBlobName = "deltas.log"

// maxLogRecordSize bounds a single framed delta. A length prefix
// past this is framing damage, not a real record; without the bound
// a corrupted prefix could demand gigabytes.
const maxLogRecordSize = 64 << 20

// frameDelta renders one log record: a 4-byte big-endian length
// prefix followed by the encoded delta.
func frameDelta(delta *tasklist.Delta) ([]byte, error) {
	payload, err := delta.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding delta for log: %w", err)
	}
	if len(payload) > maxLogRecordSize {
		return nil, fmt.Errorf("delta is %d bytes, log limit is %d", len(payload), maxLogRecordSize)
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

// decodeLog parses a delta log blob into its records. A cleanly
// truncated tail — fewer bytes than the last frame's prefix
// promised, the signature of a crash mid-append — is tolerated: the
// complete records are returned along with the count of dropped tail
// bytes. Any other damage (an absurd length, an unparseable record)
// matches ErrCorruptSnapshot.
func decodeLog(data []byte) ([]*tasklist.Delta, int, error) {
	var deltas []*tasklist.Delta
	offset := 0
	for offset < len(data) {
		remaining := len(data) - offset
		if remaining < 4 {
			return deltas, remaining, nil
		}
		length := int(binary.BigEndian.Uint32(data[offset:]))
		if length > maxLogRecordSize {
			return nil, 0, fmt.Errorf("%w: log record at offset %d claims %d bytes", ErrCorruptSnapshot, offset, length)
		}
		if remaining-4 < length {
			return deltas, remaining, nil
		}
		delta, err := tasklist.DecodeDelta(data[offset+4 : offset+4+length])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: log record at offset %d: %v", ErrCorruptSnapshot, offset, err)
		}
		deltas = append(deltas, delta)
		offset += 4 + length
	}
	return deltas, 0, nil
}
