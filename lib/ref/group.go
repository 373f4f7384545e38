// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

//nolint:dupl // the identifier types share one parse/format shape; they stay distinct for compile-time safety
package ref

import "fmt"

// GroupID identifies the replication group a list is shared within.
// It travels in cleartext at the head of every sealed delta and is
// bound into the AEAD associated data, so a payload accepted under
// one group cannot be replayed into another.
//
// GroupID is an immutable value type. The zero value is not a valid
// group identity; use IsZero to check.
type GroupID [32]byte

// ParseGroupID parses the 64-character lowercase hex form of a group
// ID. Returns ErrInvalidIdentifier for any other input.
func ParseGroupID(raw string) (GroupID, error) {
	id, err := parseHex32(raw, "group ID")
	if err != nil {
		return GroupID{}, err
	}
	return GroupID(id), nil
}

// MustParseGroupID is like ParseGroupID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseGroupID(raw string) GroupID {
	id, err := ParseGroupID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseGroupID(%q): %v", raw, err))
	}
	return id
}

// GroupIDFromBytes copies a raw 32-byte value into a GroupID.
// Returns ErrInvalidIdentifier if the slice is not exactly 32 bytes.
func GroupIDFromBytes(b []byte) (GroupID, error) {
	id, err := fromBytes(b, "group ID")
	if err != nil {
		return GroupID{}, err
	}
	return GroupID(id), nil
}

// String returns the 64-character lowercase hex form.
func (g GroupID) String() string { return formatHex32(g) }

// IsZero reports whether the GroupID is the zero value.
func (g GroupID) IsZero() bool { return g == GroupID{} }

// MarshalText implements encoding.TextMarshaler.
func (g GroupID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// strict validation as ParseGroupID.
func (g *GroupID) UnmarshalText(data []byte) error {
	parsed, err := ParseGroupID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
