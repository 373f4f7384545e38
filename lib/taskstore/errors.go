// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import "errors"

// ErrStorageIO marks a durable-storage failure: the backend could
// not read, write, or enumerate blobs. In-memory state is unaffected
// when it surfaces; only durability is.
var ErrStorageIO = errors.New("storage i/o failure")

// ErrCorruptSnapshot marks persisted state that failed validation:
// a snapshot envelope with a bad digest or unknown codec, or a delta
// log with damaged framing. Loads fail outright on it — a partially
// reconstructed list is worse than a loud error.
var ErrCorruptSnapshot = errors.New("corrupt persisted state")

// ErrBlobNotFound marks a read of a blob that does not exist.
var ErrBlobNotFound = errors.New("blob not found")
