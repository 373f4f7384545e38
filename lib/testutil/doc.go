// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate
// the timeout safety valve pattern (select with time.After fallback)
// so that individual tests do not need direct time.After calls.
// These are the only place in the test suite where real wall-clock
// timeouts are used; everything else injects clock.Fake.
//
// [PeerID], [TaskID], [ListID], and [GroupID] mint deterministic
// identifiers from a single fill byte. Merge tests need peers whose
// byte order is obvious at a glance: PeerID(0xaa) sorts before
// PeerID(0xbb), so a test asserting a tie-break can name the winner
// without hex literals.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need
// unique titles or list names that must be distinguishable in shared
// storage.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
