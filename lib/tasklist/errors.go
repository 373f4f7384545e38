// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import "errors"

// ErrUnknownTask marks an operation against a task ID that is not in
// the live membership set: never added, or removed and not re-added.
// Internal bookkeeping for the ID may still exist; liveness is what
// counts.
var ErrUnknownTask = errors.New("unknown task")

// ErrListMismatch marks a delta produced from a different list than
// the one it is being applied to. Deltas never merge across lists;
// the group layer scopes which replicas share a list, and this check
// catches payloads that slip past it (a mixed-up sync file, a bad
// import).
var ErrListMismatch = errors.New("delta belongs to a different list")
