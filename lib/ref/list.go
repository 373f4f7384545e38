// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

//nolint:dupl // the identifier types share one parse/format shape; they stay distinct for compile-time safety
package ref

import "fmt"

// ListID identifies a task list. Deltas carry the list ID they were
// produced from, and applying a delta to a different list is an
// error rather than a silent cross-merge.
//
// ListID is an immutable value type. The zero value is not a valid
// list identity; use IsZero to check.
type ListID [32]byte

// ParseListID parses the 64-character lowercase hex form of a list
// ID. Returns ErrInvalidIdentifier for any other input.
func ParseListID(raw string) (ListID, error) {
	id, err := parseHex32(raw, "list ID")
	if err != nil {
		return ListID{}, err
	}
	return ListID(id), nil
}

// MustParseListID is like ParseListID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseListID(raw string) ListID {
	id, err := ParseListID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseListID(%q): %v", raw, err))
	}
	return id
}

// String returns the 64-character lowercase hex form.
func (l ListID) String() string { return formatHex32(l) }

// IsZero reports whether the ListID is the zero value.
func (l ListID) IsZero() bool { return l == ListID{} }

// MarshalText implements encoding.TextMarshaler.
func (l ListID) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// strict validation as ParseListID.
func (l *ListID) UnmarshalText(data []byte) error {
	parsed, err := ParseListID(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
