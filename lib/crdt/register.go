// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package crdt

// Register is a last-writer-wins cell. Each write carries the
// wall-clock time of the writing call in milliseconds and the dot of
// the write event. Merge keeps the write with the larger timestamp;
// an exact timestamp tie goes to the larger writer peer ID compared
// bytewise, so any two replicas pick the same winner.
//
// The zero Register is unset: Time zero loses to every real write
// (real timestamps are milliseconds since the Unix epoch).
type Register[T any] struct {
	Value T     `cbor:"value"`
	Time  int64 `cbor:"time"`
	Dot   Dot   `cbor:"dot"`
}

// IsSet reports whether the register has ever been written. Value
// receiver so registers held as map values can be queried in place.
func (r Register[T]) IsSet() bool {
	return r.Time != 0 || !r.Dot.IsZero()
}

// Get returns the current value and whether the register is set.
func (r Register[T]) Get() (T, bool) {
	return r.Value, r.IsSet()
}

// Set applies a local write. It is merge with a single-write
// fragment, so a write stamped earlier than the current value loses
// even locally; callers that want read-your-writes bump their
// timestamp past the current one before calling Set.
func (r *Register[T]) Set(value T, timeMS int64, dot Dot) {
	r.Merge(Register[T]{Value: value, Time: timeMS, Dot: dot})
}

// Merge keeps the winning write of r and other.
func (r *Register[T]) Merge(other Register[T]) {
	if other.beats(*r) {
		*r = other
	}
}

// beats reports whether r wins over current: larger timestamp, or an
// exact timestamp tie broken by larger writer peer ID.
func (r Register[T]) beats(current Register[T]) bool {
	if !r.IsSet() {
		return false
	}
	if !current.IsSet() {
		return true
	}
	if r.Time != current.Time {
		return r.Time > current.Time
	}
	return r.Dot.Peer.Compare(current.Dot.Peer) > 0
}

// ProduceDelta returns a copy of the register if the given version
// vector has not observed its writing event, and an unset register
// otherwise. Applying the result is a plain Merge on the receiving
// side.
func (r Register[T]) ProduceDelta(since Version) Register[T] {
	if !r.IsSet() || since.Contains(r.Dot) {
		return Register[T]{}
	}
	return r
}
