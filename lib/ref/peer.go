// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"bytes"
	"fmt"
)

// PeerID identifies a replica actor. Every mutation a replica
// performs is stamped with its peer ID, version vectors count
// sequence numbers per peer ID, and register merges break exact
// timestamp ties by comparing peer IDs bytewise.
//
// PeerID is an immutable value type. The zero value is not a usable
// identity; use IsZero to check.
type PeerID [32]byte

// ParsePeerID parses the 64-character lowercase hex form of a peer
// ID. Returns ErrInvalidIdentifier for any other input.
func ParsePeerID(raw string) (PeerID, error) {
	id, err := parseHex32(raw, "peer ID")
	if err != nil {
		return PeerID{}, err
	}
	return PeerID(id), nil
}

// MustParsePeerID is like ParsePeerID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParsePeerID(raw string) PeerID {
	id, err := ParsePeerID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParsePeerID(%q): %v", raw, err))
	}
	return id
}

// PeerIDFromBytes copies a raw 32-byte value into a PeerID. Returns
// ErrInvalidIdentifier if the slice is not exactly 32 bytes.
func PeerIDFromBytes(b []byte) (PeerID, error) {
	id, err := fromBytes(b, "peer ID")
	if err != nil {
		return PeerID{}, err
	}
	return PeerID(id), nil
}

// String returns the 64-character lowercase hex form.
func (p PeerID) String() string { return formatHex32(p) }

// IsZero reports whether the PeerID is the zero value.
func (p PeerID) IsZero() bool { return p == PeerID{} }

// Compare orders two peer IDs by their raw bytes. Returns -1, 0, or
// +1 in the manner of bytes.Compare.
func (p PeerID) Compare(other PeerID) int { return bytes.Compare(p[:], other[:]) }

// MarshalText implements encoding.TextMarshaler. The zero value
// marshals as 64 zeros; it round-trips but never denotes a live peer.
func (p PeerID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// strict validation as ParsePeerID.
func (p *PeerID) UnmarshalText(data []byte) error {
	parsed, err := ParsePeerID(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
