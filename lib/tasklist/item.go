// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// TaskItem is one task's full merge bundle: immutable creation
// metadata, the checkbox, and one last-writer-wins register per
// mutable field.
//
// Creation metadata is written once at creation and copied into
// every delta that mentions the task, so a replica learning of a
// task for the first time always receives it. Two replicas holding
// the same task ID hold the same creation metadata; if one side is
// missing it (a fragment produced before this task existed there),
// merge adopts the present side.
type TaskItem struct {
	Creator   ref.PeerID `cbor:"creator"`
	CreatedAt int64      `cbor:"created_at"`

	Checkbox    Checkbox                  `cbor:"checkbox"`
	Title       crdt.Register[string]     `cbor:"title"`
	Description crdt.Register[string]     `cbor:"description"`
	Assignee    crdt.Register[ref.PeerID] `cbor:"assignee"`
	Priority    crdt.Register[Priority]   `cbor:"priority"`
}

// Merge folds the other item into this one field by field: checkbox
// records union, each register keeps its winning write, and absent
// creation metadata adopts the present side. Neither side is ever
// discarded outright.
func (item *TaskItem) Merge(other *TaskItem) {
	if item.Creator.IsZero() && item.CreatedAt == 0 {
		item.Creator = other.Creator
		item.CreatedAt = other.CreatedAt
	}
	item.Checkbox.Merge(other.Checkbox)
	item.Title.Merge(other.Title)
	item.Description.Merge(other.Description)
	item.Assignee.Merge(other.Assignee)
	item.Priority.Merge(other.Priority)
}

// ProduceDelta returns the item fragment the holder of the given
// version vector is missing, plus whether the fragment carries any
// changes at all. Creation metadata is always copied so the fragment
// is self-contained; hasChanges reports whether anything beyond the
// metadata survived the filter.
func (item *TaskItem) ProduceDelta(since crdt.Version) (TaskItem, bool) {
	delta := TaskItem{
		Creator:     item.Creator,
		CreatedAt:   item.CreatedAt,
		Checkbox:    item.Checkbox.ProduceDelta(since),
		Title:       item.Title.ProduceDelta(since),
		Description: item.Description.ProduceDelta(since),
		Assignee:    item.Assignee.ProduceDelta(since),
		Priority:    item.Priority.ProduceDelta(since),
	}
	hasChanges := !delta.Checkbox.Empty() ||
		delta.Title.IsSet() ||
		delta.Description.IsSet() ||
		delta.Assignee.IsSet() ||
		delta.Priority.IsSet()
	return delta, hasChanges
}

// Dots appends every event dot recorded in the item to out.
func (item *TaskItem) Dots(out []crdt.Dot) []crdt.Dot {
	out = item.Checkbox.Dots(out)
	for _, writeDot := range []crdt.Dot{
		item.Title.Dot,
		item.Description.Dot,
		item.Assignee.Dot,
		item.Priority.Dot,
	} {
		if !writeDot.IsZero() {
			out = append(out, writeDot)
		}
	}
	return out
}
