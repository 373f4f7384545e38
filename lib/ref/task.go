// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

//nolint:dupl // the identifier types share one parse/format shape; they stay distinct for compile-time safety
package ref

import (
	"bytes"
	"fmt"
)

// TaskID identifies a task within a list. It is derived from the
// creation event (creator, timestamp, title) via DeriveTaskID, so a
// task keeps the same identity on every replica that learns of it.
//
// TaskID is an immutable value type. The zero value is not a valid
// task identity; use IsZero to check.
type TaskID [32]byte

// ParseTaskID parses the 64-character lowercase hex form of a task
// ID. Returns ErrInvalidIdentifier for any other input.
func ParseTaskID(raw string) (TaskID, error) {
	id, err := parseHex32(raw, "task ID")
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(id), nil
}

// MustParseTaskID is like ParseTaskID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseTaskID(raw string) TaskID {
	id, err := ParseTaskID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseTaskID(%q): %v", raw, err))
	}
	return id
}

// String returns the 64-character lowercase hex form.
func (t TaskID) String() string { return formatHex32(t) }

// IsZero reports whether the TaskID is the zero value.
func (t TaskID) IsZero() bool { return t == TaskID{} }

// Compare orders two task IDs by their raw bytes. Returns -1, 0, or
// +1 in the manner of bytes.Compare. Display ordering uses this as
// the final tie-break so equal position keys still sort
// deterministically.
func (t TaskID) Compare(other TaskID) int { return bytes.Compare(t[:], other[:]) }

// MarshalText implements encoding.TextMarshaler.
func (t TaskID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// strict validation as ParseTaskID.
func (t *TaskID) UnmarshalText(data []byte) error {
	parsed, err := ParseTaskID(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
