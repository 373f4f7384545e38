// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package testutil

import "github.com/saorsa-labs/x0x-go/lib/ref"

// PeerID mints a deterministic peer ID with every byte set to fill.
// PeerID(0xaa) is bytewise smaller than PeerID(0xbb), which lets
// tie-break tests name their expected winner without hex literals.
func PeerID(fill byte) ref.PeerID {
	var id ref.PeerID
	for i := range id {
		id[i] = fill
	}
	return id
}

// TaskID mints a deterministic task ID with every byte set to fill.
func TaskID(fill byte) ref.TaskID {
	var id ref.TaskID
	for i := range id {
		id[i] = fill
	}
	return id
}

// ListID mints a deterministic list ID with every byte set to fill.
func ListID(fill byte) ref.ListID {
	var id ref.ListID
	for i := range id {
		id[i] = fill
	}
	return id
}

// GroupID mints a deterministic group ID with every byte set to
// fill.
func GroupID(fill byte) ref.GroupID {
	var id ref.GroupID
	for i := range id {
		id[i] = fill
	}
	return id
}
