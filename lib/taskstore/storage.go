// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"strings"
)

// Storage is the durable byte layer under a Store. Names are slash-
// separated paths of lowercase segments ([a-z0-9._-]); the first
// segment is a list ID in hex, so every list's blobs share a prefix
// and can be enumerated or dropped together.
//
// All methods honor ctx and return errors matching ErrStorageIO for
// backend failures. Reads of absent blobs match ErrBlobNotFound.
type Storage interface {
	// ReadBlob returns the full contents of a blob.
	ReadBlob(ctx context.Context, name string) ([]byte, error)

	// WriteBlob replaces a blob's contents. The replacement is
	// atomic and durable on successful return: a crash mid-write
	// leaves either the old contents or the new, never a mix.
	WriteBlob(ctx context.Context, name string, data []byte) error

	// AppendBlob appends to a blob, creating it if absent. The
	// append is durable on successful return. A crash mid-append may
	// leave a cleanly truncated tail, which readers tolerate.
	AppendBlob(ctx context.Context, name string, data []byte) error

	// DeleteBlob removes a blob. Deleting an absent blob is a no-op.
	DeleteBlob(ctx context.Context, name string) error

	// ListBlobs returns the names of every blob whose name starts
	// with prefix, sorted lexically.
	ListBlobs(ctx context.Context, prefix string) ([]string, error)
}

// validateBlobName rejects names that could escape the backend's
// namespace or collide with its internal files. Shared by both
// backends so a name accepted by one is accepted by the other.
func validateBlobName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty blob name", ErrStorageIO)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("%w: blob name %q has an invalid path segment", ErrStorageIO, name)
		}
		for _, c := range segment {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= '0' && c <= '9':
			case c == '.' || c == '_' || c == '-':
			default:
				return fmt.Errorf("%w: blob name %q has forbidden character %q", ErrStorageIO, name, c)
			}
		}
	}
	return nil
}
