// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrInvalidIdentifier is the failure kind for every identifier parse
// in this package. Callers match it with errors.Is; the wrapped
// detail text says which identifier and what was wrong with it.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// encodedLength is the exact length of the textual form: 32 bytes,
// two lowercase hex characters per byte.
const encodedLength = 64

// formatHex32 renders a 32-byte identifier as lowercase hex.
func formatHex32(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

// parseHex32 decodes a strict 64-character lowercase hex string.
// Uppercase digits are rejected: the canonical form is lowercase,
// and accepting both would give one identifier two unequal textual
// spellings.
func parseHex32(raw, label string) ([32]byte, error) {
	var id [32]byte
	if len(raw) != encodedLength {
		return id, fmt.Errorf("%w: %s must be %d hex characters, got %d", ErrInvalidIdentifier, label, encodedLength, len(raw))
	}
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= 'A' && c <= 'F' {
			return id, fmt.Errorf("%w: %s has uppercase hex digit %q at position %d", ErrInvalidIdentifier, label, c, i)
		}
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, fmt.Errorf("%w: %s: %v", ErrInvalidIdentifier, label, err)
	}
	return id, nil
}

// fromBytes copies a raw 32-byte value. Slices of any other length
// are rejected.
func fromBytes(b []byte, label string) ([32]byte, error) {
	var id [32]byte
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidIdentifier, label, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}
