// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package crdt

import "sort"

// OrSet is an observed-remove set. Every addition is tagged with the
// dot of the event that performed it; a removal tombstones exactly
// the add-dots it observed. Merging two replicas unions both sides,
// with tombstones suppressing the adds they name. An add whose dot
// no tombstone names always survives, so a removal can never cancel
// an addition it had not seen.
//
// The zero OrSet is an empty set ready for use; maps are allocated
// lazily on first write so decoded and zero values behave alike.
//
// Values are constrained to comparable because removal targets and
// membership are looked up by value.
type OrSet[T comparable] struct {
	// Adds holds the live add events: the dot of each addition that
	// has not been tombstoned, mapped to the value it added.
	Adds map[Dot]T `cbor:"adds,omitempty"`

	// Removes holds tombstones: each removed add-dot mapped to the
	// dot of the removal event that killed it. When two replicas
	// tombstone the same add-dot, merge keeps the smaller removal
	// dot so the maps converge bytewise.
	Removes map[Dot]Dot `cbor:"removes,omitempty"`
}

// Add records an addition of value at the given dot. An add whose
// dot is already tombstoned is dropped: the tombstone proves a
// removal already observed this exact event, and replaying the add
// out of order must not resurrect it.
func (s *OrSet[T]) Add(dot Dot, value T) {
	if _, removed := s.Removes[dot]; removed {
		return
	}
	if s.Adds == nil {
		s.Adds = make(map[Dot]T)
	}
	s.Adds[dot] = value
}

// Remove tombstones the observed add event addDot with the removal
// event removal. Callers enumerate the add-dots to kill with
// DotsFor; removing an unobserved dot is legal and records the
// tombstone so a late-arriving add stays dead.
func (s *OrSet[T]) Remove(addDot, removal Dot) {
	s.tombstone(addDot, removal)
}

// tombstone installs or tightens the tombstone for addDot and drops
// the live add if present.
func (s *OrSet[T]) tombstone(addDot, removal Dot) {
	if s.Removes == nil {
		s.Removes = make(map[Dot]Dot)
	}
	if existing, ok := s.Removes[addDot]; !ok || removal.Compare(existing) < 0 {
		s.Removes[addDot] = removal
	}
	delete(s.Adds, addDot)
}

// Contains reports whether any live add carries the given value.
func (s *OrSet[T]) Contains(value T) bool {
	for _, v := range s.Adds {
		if v == value {
			return true
		}
	}
	return false
}

// DotsFor returns the dots of all live adds carrying the given
// value, sorted into the canonical dot order. A remove operation
// tombstones each of these with its own removal event, so the
// pairing of add-dot to removal-dot is deterministic for replay.
func (s *OrSet[T]) DotsFor(value T) []Dot {
	var dots []Dot
	for dot, v := range s.Adds {
		if v == value {
			dots = append(dots, dot)
		}
	}
	sort.Slice(dots, func(i, j int) bool { return dots[i].Compare(dots[j]) < 0 })
	return dots
}

// Values returns the distinct live values, in no particular order.
// Two concurrent adds of the same value yield two dots but one
// value.
func (s *OrSet[T]) Values() []T {
	seen := make(map[T]struct{}, len(s.Adds))
	var values []T
	for _, v := range s.Adds {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Empty reports whether the set carries no information at all:
// no live adds and no tombstones. Used to detect empty deltas.
func (s *OrSet[T]) Empty() bool {
	return len(s.Adds) == 0 && len(s.Removes) == 0
}

// Dots appends every event dot recorded in the set (add events and
// removal events, including tombstoned adds) to out and returns it.
// Replay uses this to rebuild a version vector from bare state.
func (s *OrSet[T]) Dots(out []Dot) []Dot {
	for dot := range s.Adds {
		out = append(out, dot)
	}
	for addDot, removal := range s.Removes {
		out = append(out, addDot, removal)
	}
	return out
}

// Merge folds other into s. Tombstones union first (keeping the
// smaller removal dot on conflict), then adds union, suppressed by
// the merged tombstones. The operation is commutative, associative,
// and idempotent.
func (s *OrSet[T]) Merge(other OrSet[T]) {
	for addDot, removal := range other.Removes {
		s.tombstone(addDot, removal)
	}
	for dot, value := range other.Adds {
		s.Add(dot, value)
	}
}

// ProduceDelta returns the state fragment the holder of the given
// version vector is missing: adds whose add-dot and tombstones whose
// removal-dot the vector does not contain. Applying the result is a
// plain Merge on the receiving side.
func (s *OrSet[T]) ProduceDelta(since Version) OrSet[T] {
	var delta OrSet[T]
	for dot, value := range s.Adds {
		if !since.Contains(dot) {
			if delta.Adds == nil {
				delta.Adds = make(map[Dot]T)
			}
			delta.Adds[dot] = value
		}
	}
	for addDot, removal := range s.Removes {
		if !since.Contains(removal) {
			if delta.Removes == nil {
				delta.Removes = make(map[Dot]Dot)
			}
			delta.Removes[addDot] = removal
		}
	}
	return delta
}
