// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"fmt"

	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// TaskList is the full replicated state of one shared list. It is a
// plain data structure: no lock, no clock, no peer identity. All
// mutators take the event dot and timestamps explicitly, and the
// caller is responsible for serializing mutations (see
// lib/replica.Engine).
type TaskList struct {
	// ID is the list identity. Deltas carry it and refuse to merge
	// across lists.
	ID ref.ListID `cbor:"id"`

	// Name is the human-facing list name.
	Name crdt.Register[string] `cbor:"name"`

	// Tasks is the membership set. A task is visible exactly when it
	// is live here, whatever other bookkeeping exists for it.
	Tasks crdt.OrSet[ref.TaskID] `cbor:"tasks"`

	// Items holds each known task's merge bundle, including tasks
	// currently removed from the live set. Removed entries are
	// retained so a concurrent resurrection merges against full
	// history; Compact prunes them once they are no longer live.
	Items map[ref.TaskID]*TaskItem `cbor:"items,omitempty"`

	// Positions holds the ordering key register per task. Keys are
	// sparse; appends allocate past the current maximum and reorders
	// rewrite the keys wholesale.
	Positions map[ref.TaskID]crdt.Register[uint64] `cbor:"positions,omitempty"`

	// Vector records every event dot this replica has observed,
	// locally performed or merged in. It is the `since` marker for
	// delta production and the cheap staleness check.
	Vector crdt.Version `cbor:"vector,omitempty"`
}

// New returns an empty list with the given identity.
func New(id ref.ListID) *TaskList {
	return &TaskList{
		ID:        id,
		Items:     make(map[ref.TaskID]*TaskItem),
		Positions: make(map[ref.TaskID]crdt.Register[uint64]),
		Vector:    crdt.NewVersion(),
	}
}

// observe records an event dot in the list's vector.
func (l *TaskList) observe(dot crdt.Dot) {
	if l.Vector == nil {
		l.Vector = crdt.NewVersion()
	}
	l.Vector.Observe(dot)
}

// SetName writes the list name.
func (l *TaskList) SetName(name string, timeMS int64, dot crdt.Dot) {
	l.Name.Set(name, timeMS, dot)
	l.observe(dot)
}

// AddTask inserts a task, or merges into it when the identifier
// already exists locally. Never overwrites: an unconditional replace
// would silently destroy checkbox and metadata state recorded
// against the existing entry. The single dot tags the whole creation
// event: the membership add, the initial register writes, and the
// position assignment.
func (l *TaskList) AddTask(id ref.TaskID, creator ref.PeerID, createdAtMS int64, title, description string, dot crdt.Dot) {
	if l.Items == nil {
		l.Items = make(map[ref.TaskID]*TaskItem)
	}
	item := l.Items[id]
	if item == nil {
		item = &TaskItem{Creator: creator, CreatedAt: createdAtMS}
		l.Items[id] = item
	}

	l.Tasks.Add(dot, id)
	item.Title.Set(title, createdAtMS, dot)
	if description != "" {
		item.Description.Set(description, createdAtMS, dot)
	}
	l.setPosition(id, l.appendKey(), createdAtMS, dot)
	l.observe(dot)
}

// RemoveTask tombstones every add event currently observed for the
// task. A concurrent add on another replica, not yet observed here,
// survives a later merge. The single removal dot tags the whole
// removal regardless of how many add events it covers.
func (l *TaskList) RemoveTask(id ref.TaskID, removal crdt.Dot) error {
	addDots := l.Tasks.DotsFor(id)
	if len(addDots) == 0 {
		return fmt.Errorf("remove task %s: %w", id, ErrUnknownTask)
	}
	for _, addDot := range addDots {
		l.Tasks.Remove(addDot, removal)
	}
	l.observe(removal)
	return nil
}

// Claim records that agent took the task. Never rejected for state
// reasons: a claim on an already-done task is recorded and loses the
// checkbox reduction.
func (l *TaskList) Claim(id ref.TaskID, agent ref.PeerID, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Checkbox.Record(dot, ClaimRecord{Kind: KindClaimed, Agent: agent, Time: timeMS})
	l.observe(dot)
	return nil
}

// Complete records that agent completed the task. Like Claim, it is
// never rejected for state reasons.
func (l *TaskList) Complete(id ref.TaskID, agent ref.PeerID, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Checkbox.Record(dot, ClaimRecord{Kind: KindDone, Agent: agent, Time: timeMS})
	l.observe(dot)
	return nil
}

// SetTitle writes the task's title register.
func (l *TaskList) SetTitle(id ref.TaskID, title string, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Title.Set(title, timeMS, dot)
	l.observe(dot)
	return nil
}

// SetDescription writes the task's description register.
func (l *TaskList) SetDescription(id ref.TaskID, description string, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Description.Set(description, timeMS, dot)
	l.observe(dot)
	return nil
}

// SetAssignee writes the task's assignee register. The zero peer ID
// clears the assignment.
func (l *TaskList) SetAssignee(id ref.TaskID, assignee ref.PeerID, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Assignee.Set(assignee, timeMS, dot)
	l.observe(dot)
	return nil
}

// SetPriority writes the task's priority register.
func (l *TaskList) SetPriority(id ref.TaskID, priority Priority, timeMS int64, dot crdt.Dot) error {
	item, err := l.liveItem(id)
	if err != nil {
		return err
	}
	item.Priority.Set(priority, timeMS, dot)
	l.observe(dot)
	return nil
}

// liveItem resolves a task ID against the live membership set,
// erroring ErrUnknownTask when the task is absent. A live task with
// no item yet (its membership add arrived ahead of its data) gets an
// empty placeholder; the data merges in when it arrives.
func (l *TaskList) liveItem(id ref.TaskID) (*TaskItem, error) {
	if !l.Tasks.Contains(id) {
		return nil, fmt.Errorf("task %s: %w", id, ErrUnknownTask)
	}
	if l.Items == nil {
		l.Items = make(map[ref.TaskID]*TaskItem)
	}
	item := l.Items[id]
	if item == nil {
		item = &TaskItem{}
		l.Items[id] = item
	}
	return item, nil
}

// Merge folds a full remote state into this one: name register,
// membership set, every item, every position, and the observed
// vector. ApplyDelta is the incremental form of the same operation.
func (l *TaskList) Merge(other *TaskList) error {
	if other.ID != l.ID {
		return fmt.Errorf("merge list %s into %s: %w", other.ID, l.ID, ErrListMismatch)
	}
	l.Name.Merge(other.Name)
	l.Tasks.Merge(other.Tasks)
	l.mergeItems(other.Items)
	l.mergePositions(other.Positions)
	if l.Vector == nil {
		l.Vector = crdt.NewVersion()
	}
	l.Vector.Merge(other.Vector)
	return nil
}

// ApplyDelta merges a delta fragment. Returns whether the fragment
// contained at least one previously-unobserved event; duplicated or
// stale deltas apply cleanly and report false.
func (l *TaskList) ApplyDelta(delta *Delta) (bool, error) {
	if delta.List != l.ID {
		return false, fmt.Errorf("apply delta from list %s to %s: %w", delta.List, l.ID, ErrListMismatch)
	}

	before := l.Vector.Clone()

	l.Name.Merge(delta.Name)
	l.Tasks.Merge(delta.Tasks)
	l.mergeItems(delta.Items)
	l.mergePositions(delta.Positions)

	if l.Vector == nil {
		l.Vector = crdt.NewVersion()
	}
	for _, dot := range delta.dots(nil) {
		l.Vector.Observe(dot)
	}
	return !l.Vector.Equal(before), nil
}

// mergeItems merges or inserts every incoming item. Incoming items
// are copied through an empty merge so the list never aliases the
// caller's structures.
func (l *TaskList) mergeItems(items map[ref.TaskID]*TaskItem) {
	if len(items) == 0 {
		return
	}
	if l.Items == nil {
		l.Items = make(map[ref.TaskID]*TaskItem, len(items))
	}
	for id, incoming := range items {
		existing := l.Items[id]
		if existing == nil {
			existing = &TaskItem{}
			l.Items[id] = existing
		}
		existing.Merge(incoming)
	}
}

// mergePositions merges every incoming position register.
func (l *TaskList) mergePositions(positions map[ref.TaskID]crdt.Register[uint64]) {
	if len(positions) == 0 {
		return
	}
	if l.Positions == nil {
		l.Positions = make(map[ref.TaskID]crdt.Register[uint64], len(positions))
	}
	for id, incoming := range positions {
		current := l.Positions[id]
		current.Merge(incoming)
		l.Positions[id] = current
	}
}

// ProduceDelta assembles the fragment a replica holding the given
// version vector is missing. Task fragments ride along whenever the
// membership delta introduces the task, so a receiver that has never
// seen it gets its creation metadata and current fields in the same
// payload.
func (l *TaskList) ProduceDelta(since crdt.Version) *Delta {
	delta := &Delta{
		List:   l.ID,
		Vector: l.Vector.Clone(),
		Name:   l.Name.ProduceDelta(since),
		Tasks:  l.Tasks.ProduceDelta(since),
	}

	needItem := make(map[ref.TaskID]bool, len(delta.Tasks.Adds))
	for _, id := range delta.Tasks.Values() {
		needItem[id] = true
	}

	for id, item := range l.Items {
		fragment, hasChanges := item.ProduceDelta(since)
		if !hasChanges && !needItem[id] {
			continue
		}
		if delta.Items == nil {
			delta.Items = make(map[ref.TaskID]*TaskItem)
		}
		copied := fragment
		delta.Items[id] = &copied
	}

	for id, register := range l.Positions {
		fragment := register.ProduceDelta(since)
		if !fragment.IsSet() && needItem[id] {
			// The receiver is learning of this task now; ship the
			// current position even if its write predates the
			// vector, so the task lands ordered rather than
			// floating to the end.
			fragment = register
		}
		if !fragment.IsSet() {
			continue
		}
		if delta.Positions == nil {
			delta.Positions = make(map[ref.TaskID]crdt.Register[uint64])
		}
		delta.Positions[id] = fragment
	}
	return delta
}

// Compact drops Items and Positions bookkeeping for tasks that are
// no longer live. Safe because any delta that could resurrect a task
// carries the task's data with it. Tombstones are never dropped;
// they are what keeps replayed adds dead. Returns the number of
// tasks pruned.
//
// Compact is local maintenance, not a replicated operation: two
// replicas may compact at different times and still present
// identical visible state.
func (l *TaskList) Compact() int {
	// One pass over the membership set up front; probing it per
	// entry would rescan the add events for every task.
	live := make(map[ref.TaskID]bool)
	for _, id := range l.Tasks.Values() {
		live[id] = true
	}

	pruned := 0
	for id := range l.Items {
		if live[id] {
			continue
		}
		delete(l.Items, id)
		delete(l.Positions, id)
		pruned++
	}
	for id := range l.Positions {
		if !live[id] {
			delete(l.Positions, id)
		}
	}
	return pruned
}
