// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"time"

	"github.com/saorsa-labs/x0x-go/lib/clock"
)

// CheckpointPolicy sets when a dirty list earns a new snapshot.
// Snapshots bound log replay time at the cost of rewriting full
// state, so the policy fires on accumulated mutations or on age,
// debounced so a burst of changes produces one capture.
type CheckpointPolicy struct {
	// MutationThreshold is the number of applied mutations that
	// forces a snapshot regardless of timing.
	MutationThreshold int

	// DirtyTimeFloor is how long a list may stay dirty before a
	// snapshot is due even below the mutation threshold.
	DirtyTimeFloor time.Duration

	// DebounceFloor is the minimum spacing between snapshots.
	DebounceFloor time.Duration
}

// DefaultCheckpointPolicy returns the standard policy: snapshot
// every 32 mutations or 5 dirty minutes, at most one capture per 2
// seconds.
func DefaultCheckpointPolicy() CheckpointPolicy {
	return CheckpointPolicy{
		MutationThreshold: 32,
		DirtyTimeFloor:    5 * time.Minute,
		DebounceFloor:     2 * time.Second,
	}
}

// CheckpointAction is a scheduler decision.
type CheckpointAction int

const (
	// ActionSkipClean means nothing changed since the last capture.
	ActionSkipClean CheckpointAction = iota
	// ActionSkipDebounced means a capture is due but too close to
	// the previous one; ask again later.
	ActionSkipDebounced
	// ActionSkipPolicy means the list is dirty but below both the
	// mutation threshold and the dirty-time floor.
	ActionSkipPolicy
	// ActionPersist means capture a snapshot now.
	ActionPersist
)

// String returns the action's display name.
func (a CheckpointAction) String() string {
	switch a {
	case ActionSkipClean:
		return "skip-clean"
	case ActionSkipDebounced:
		return "skip-debounced"
	case ActionSkipPolicy:
		return "skip-policy"
	case ActionPersist:
		return "persist"
	default:
		return "unknown"
	}
}

// CheckpointScheduler tracks one list's dirtiness and decides when
// to snapshot it. Not safe for concurrent use; the engine consults
// it under its own serialization.
type CheckpointScheduler struct {
	policy CheckpointPolicy
	clock  clock.Clock

	mutations   int
	dirtySince  time.Time
	lastCapture time.Time
}

// NewCheckpointScheduler returns a scheduler with the given policy.
// Zero policy fields are filled from DefaultCheckpointPolicy.
func NewCheckpointScheduler(policy CheckpointPolicy, clk clock.Clock) *CheckpointScheduler {
	defaults := DefaultCheckpointPolicy()
	if policy.MutationThreshold <= 0 {
		policy.MutationThreshold = defaults.MutationThreshold
	}
	if policy.DirtyTimeFloor <= 0 {
		policy.DirtyTimeFloor = defaults.DirtyTimeFloor
	}
	if policy.DebounceFloor <= 0 {
		policy.DebounceFloor = defaults.DebounceFloor
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &CheckpointScheduler{policy: policy, clock: clk}
}

// NoteMutation records one committed mutation (local or merged).
func (s *CheckpointScheduler) NoteMutation() {
	if s.mutations == 0 {
		s.dirtySince = s.clock.Now()
	}
	s.mutations++
}

// Decide returns what to do now. An explicit request (a shutdown, a
// user-driven flush) overrides the policy thresholds but not the
// clean check or the debounce floor.
func (s *CheckpointScheduler) Decide(explicit bool) CheckpointAction {
	if s.mutations == 0 {
		return ActionSkipClean
	}
	now := s.clock.Now()
	if !s.lastCapture.IsZero() && now.Sub(s.lastCapture) < s.policy.DebounceFloor {
		return ActionSkipDebounced
	}
	if explicit {
		return ActionPersist
	}
	if s.mutations >= s.policy.MutationThreshold {
		return ActionPersist
	}
	if now.Sub(s.dirtySince) >= s.policy.DirtyTimeFloor {
		return ActionPersist
	}
	return ActionSkipPolicy
}

// NoteCaptured resets the dirty state after a successful snapshot.
func (s *CheckpointScheduler) NoteCaptured() {
	s.mutations = 0
	s.dirtySince = time.Time{}
	s.lastCapture = s.clock.Now()
}

// Pending reports the mutation count since the last capture.
func (s *CheckpointScheduler) Pending() int { return s.mutations }
