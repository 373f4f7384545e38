// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"fmt"
	"sort"

	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// positionGap is the spacing between ordering keys assigned by a
// wholesale rekey or an append. Sparse keys let an append land after
// the current tail without touching any existing register; only an
// explicit Reorder rewrites them.
const positionGap uint64 = 1 << 16

// TaskSnapshot is one task's visible state at the moment of an
// ordered read. It is a plain copy: holding a snapshot after the
// read does not alias or lock the list.
type TaskSnapshot struct {
	ID          ref.TaskID
	Title       string
	Description string
	Assignee    ref.PeerID
	Priority    Priority
	State       CheckboxState
	// Holder is the agent behind the winning claim or completion
	// record; zero when State is StateEmpty.
	Holder ref.PeerID
	// HolderTime is the wall-clock milliseconds of the winning
	// record; zero when State is StateEmpty.
	HolderTime int64
	Creator    ref.PeerID
	CreatedAt  int64
}

// TasksOrdered returns a snapshot of every live task in display
// order. Liveness is decided first, from the membership set alone;
// the ordering keys are consulted only for tasks that passed that
// filter, so a removed task can never ride back in on a stale
// position entry. Tasks sharing a position key (concurrent appends
// merged from two replicas) are ordered by task ID, the same way on
// every replica.
func (l *TaskList) TasksOrdered() []TaskSnapshot {
	live := l.Tasks.Values()
	if len(live) == 0 {
		return nil
	}

	sort.Slice(live, func(i, j int) bool {
		ki, kj := l.positionKey(live[i]), l.positionKey(live[j])
		if ki != kj {
			return ki < kj
		}
		return live[i].Compare(live[j]) < 0
	})

	snapshots := make([]TaskSnapshot, 0, len(live))
	for _, id := range live {
		snapshots = append(snapshots, l.snapshot(id))
	}
	return snapshots
}

// Snapshot returns the visible state of one live task.
func (l *TaskList) Snapshot(id ref.TaskID) (TaskSnapshot, error) {
	if !l.Tasks.Contains(id) {
		return TaskSnapshot{}, fmt.Errorf("task %s: %w", id, ErrUnknownTask)
	}
	return l.snapshot(id), nil
}

// snapshot copies a task's current field values. The task may have
// no item yet (membership arrived ahead of data); the snapshot is
// then empty apart from the ID.
func (l *TaskList) snapshot(id ref.TaskID) TaskSnapshot {
	s := TaskSnapshot{ID: id}
	item := l.Items[id]
	if item == nil {
		return s
	}
	s.Title, _ = item.Title.Get()
	s.Description, _ = item.Description.Get()
	s.Assignee, _ = item.Assignee.Get()
	s.Priority, _ = item.Priority.Get()
	s.Creator = item.Creator
	s.CreatedAt = item.CreatedAt
	state, winner := item.Checkbox.State()
	s.State = state
	if state != StateEmpty {
		s.Holder = winner.Agent
		s.HolderTime = winner.Time
	}
	return s
}

// Reorder rewrites the ordering keys so the live tasks appear in the
// given order. The order must name every live task exactly once;
// validation runs in full before any register is touched, so a bad
// call mutates nothing. The single dot tags every rewritten key.
func (l *TaskList) Reorder(order []ref.TaskID, timeMS int64, dot crdt.Dot) error {
	liveCount := 0
	seen := make(map[ref.TaskID]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return fmt.Errorf("reorder: task %s appears twice: %w", id, ref.ErrInvalidIdentifier)
		}
		seen[id] = true
		if !l.Tasks.Contains(id) {
			return fmt.Errorf("reorder: task %s: %w", id, ErrUnknownTask)
		}
		liveCount++
	}
	if live := len(l.Tasks.Values()); liveCount != live {
		return fmt.Errorf("reorder: order names %d of %d live tasks: %w", liveCount, live, ErrUnknownTask)
	}

	for index, id := range order {
		l.setPosition(id, uint64(index+1)*positionGap, timeMS, dot)
	}
	l.observe(dot)
	return nil
}

// positionKey returns the task's current ordering key. A live task
// with no position yet (its key write has not arrived) sorts last,
// after every assigned key, by reporting the maximum key.
func (l *TaskList) positionKey(id ref.TaskID) uint64 {
	if register, ok := l.Positions[id]; ok && register.IsSet() {
		return register.Value
	}
	return ^uint64(0)
}

// appendKey allocates an ordering key past every key currently
// assigned, so a new task lands at the end of the list.
func (l *TaskList) appendKey() uint64 {
	var max uint64
	for _, register := range l.Positions {
		if register.IsSet() && register.Value > max {
			max = register.Value
		}
	}
	return max + positionGap
}

// setPosition writes a task's ordering key register.
func (l *TaskList) setPosition(id ref.TaskID, key uint64, timeMS int64, dot crdt.Dot) {
	if l.Positions == nil {
		l.Positions = make(map[ref.TaskID]crdt.Register[uint64])
	}
	register := l.Positions[id]
	register.Set(key, timeMS, dot)
	l.Positions[id] = register
}
