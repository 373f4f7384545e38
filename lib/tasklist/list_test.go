// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tasklist_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
	"github.com/saorsa-labs/x0x-go/lib/testutil"
)

var listID = testutil.ListID(0x11)

func canonicalBytes(t *testing.T, v any) []byte {
	t.Helper()
	data, err := codec.Marshal(v)
	if err != nil {
		t.Fatalf("canonical marshal: %v", err)
	}
	return data
}

func requireSameState(t *testing.T, label string, a, b *tasklist.TaskList) {
	t.Helper()
	if !bytes.Equal(canonicalBytes(t, a), canonicalBytes(t, b)) {
		t.Errorf("%s: replicas diverged", label)
	}
}

// addTask performs the full local add flow a replica runs: derive
// the content ID, then insert under the actor's next dot.
func addTask(l *tasklist.TaskList, actor *tasklist.Actor, timeMS int64, title, description string) ref.TaskID {
	id := ref.DeriveTaskID(actor.Peer(), timeMS, title)
	l.AddTask(id, actor.Peer(), timeMS, title, description, actor.Next())
	return id
}

func TestAddTaskAndSnapshot(t *testing.T) {
	list := tasklist.New(listID)
	actor := tasklist.NewActor(testutil.PeerID(0xaa))

	id := addTask(list, actor, 1000, "write the report", "quarterly numbers")

	snap, err := list.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Title != "write the report" || snap.Description != "quarterly numbers" {
		t.Errorf("snapshot fields = %q / %q", snap.Title, snap.Description)
	}
	if snap.Creator != actor.Peer() || snap.CreatedAt != 1000 {
		t.Errorf("creation metadata = %s / %d", snap.Creator, snap.CreatedAt)
	}
	if snap.State != tasklist.StateEmpty {
		t.Errorf("fresh task state = %v", snap.State)
	}
}

func TestAddTaskConcurrentCreateMergesNeverOverwrites(t *testing.T) {
	// Two replicas derive the same content ID (same creator, time,
	// title) and each records state against its local copy before
	// either merge. After exchange, both contributions survive on
	// both sides.
	creator := testutil.PeerID(0xaa)
	id := ref.DeriveTaskID(creator, 1000, "shared")

	replicaA := tasklist.New(listID)
	actorA := tasklist.NewActor(creator)
	replicaA.AddTask(id, creator, 1000, "shared", "from A", actorA.Next())
	if err := replicaA.Claim(id, creator, 1100, actorA.Next()); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	replicaB := tasklist.New(listID)
	actorB := tasklist.NewActor(testutil.PeerID(0xbb))
	replicaB.AddTask(id, creator, 1000, "shared", "", actorB.Next())
	if err := replicaB.SetDescription(id, "from B", 1200, actorB.Next()); err != nil {
		t.Fatalf("SetDescription: %v", err)
	}

	// A second local add of the same ID must merge into the
	// existing item, not replace it.
	replicaA.AddTask(id, creator, 1000, "shared", "", actorA.Next())
	if snap, _ := replicaA.Snapshot(id); snap.State != tasklist.StateClaimed {
		t.Fatal("local re-add destroyed the recorded claim")
	}

	if err := replicaA.Merge(replicaB); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := replicaB.Merge(replicaA); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	for name, replica := range map[string]*tasklist.TaskList{"A": replicaA, "B": replicaB} {
		snap, err := replica.Snapshot(id)
		if err != nil {
			t.Fatalf("replica %s: %v", name, err)
		}
		if snap.State != tasklist.StateClaimed {
			t.Errorf("replica %s lost A's claim: state %v", name, snap.State)
		}
		if snap.Description != "from B" {
			t.Errorf("replica %s lost B's description: %q", name, snap.Description)
		}
	}
	requireSameState(t, "concurrent create", replicaA, replicaB)
}

func TestRemoveTaskExcludedFromOrderedRead(t *testing.T) {
	list := tasklist.New(listID)
	actor := tasklist.NewActor(testutil.PeerID(0xaa))

	keep := addTask(list, actor, 1000, "keep", "")
	drop := addTask(list, actor, 1001, "drop", "")

	if err := list.RemoveTask(drop, actor.Next()); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}

	ordered := list.TasksOrdered()
	if len(ordered) != 1 || ordered[0].ID != keep {
		t.Fatalf("ordered read = %v, want only the kept task", ordered)
	}

	// Operations against the removed task fail UnknownTask even
	// though its bookkeeping still exists internally.
	err := list.Claim(drop, actor.Peer(), 2000, actor.Next())
	if !errors.Is(err, tasklist.ErrUnknownTask) {
		t.Errorf("Claim on removed task: %v, want ErrUnknownTask", err)
	}
}

func TestRemoveUnknownTask(t *testing.T) {
	list := tasklist.New(listID)
	actor := tasklist.NewActor(testutil.PeerID(0xaa))
	err := list.RemoveTask(testutil.TaskID(0x99), actor.Next())
	if !errors.Is(err, tasklist.ErrUnknownTask) {
		t.Errorf("RemoveTask on unknown ID: %v, want ErrUnknownTask", err)
	}
}

func TestAddWinsOverObservedRemoveOnly(t *testing.T) {
	// A adds and removes a task. A delayed delta from B carrying
	// only the add event A already tombstoned leaves the task
	// removed; a fresh, unobserved add event resurrects it.
	creator := testutil.PeerID(0xaa)
	id := ref.DeriveTaskID(creator, 1000, "contested")

	replicaA := tasklist.New(listID)
	actorA := tasklist.NewActor(creator)
	replicaA.AddTask(id, creator, 1000, "contested", "", actorA.Next())

	replicaB := tasklist.New(listID)
	if err := replicaB.Merge(replicaA); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if err := replicaA.RemoveTask(id, actorA.Next()); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}

	// Replay of the already-observed add: stays dead.
	staleDelta := replicaB.ProduceDelta(nil)
	if _, err := replicaA.ApplyDelta(staleDelta); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if replicaA.Tasks.Contains(id) {
		t.Fatal("replayed add-tag resurrected a tombstoned task")
	}

	// A genuinely new add event on B: survives the merge.
	actorB := tasklist.NewActor(testutil.PeerID(0xbb))
	actorB.Resume(replicaB.Vector)
	replicaB.AddTask(id, creator, 1000, "contested", "", actorB.Next())
	freshDelta := replicaB.ProduceDelta(replicaA.Vector.Clone())
	if _, err := replicaA.ApplyDelta(freshDelta); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !replicaA.Tasks.Contains(id) {
		t.Error("unobserved concurrent add did not survive the remove")
	}
}

func TestLwwTieBreakDeterminism(t *testing.T) {
	// Exact timestamp tie on a title write: the larger peer ID wins
	// on both replicas.
	creator := testutil.PeerID(0x01)
	id := ref.DeriveTaskID(creator, 1000, "t")

	small := tasklist.New(listID)
	actorSmall := tasklist.NewActor(testutil.PeerID(0x01))
	small.AddTask(id, creator, 1000, "t", "", actorSmall.Next())

	large := tasklist.New(listID)
	if err := large.Merge(small); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	actorLarge := tasklist.NewActor(testutil.PeerID(0x02))
	actorLarge.Resume(large.Vector)

	if err := small.SetTitle(id, "Draft", 5000, actorSmall.Next()); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if err := large.SetTitle(id, "Final", 5000, actorLarge.Next()); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}

	if err := small.Merge(large); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := large.Merge(small); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	for name, replica := range map[string]*tasklist.TaskList{"small": small, "large": large} {
		snap, err := replica.Snapshot(id)
		if err != nil {
			t.Fatalf("replica %s: %v", name, err)
		}
		if snap.Title != "Final" {
			t.Errorf("replica %s title = %q, want the larger peer's write", name, snap.Title)
		}
	}
	requireSameState(t, "tie-break", small, large)
}

func TestMergeLaws(t *testing.T) {
	build := func() (a, b, c *tasklist.TaskList) {
		creator := testutil.PeerID(0xaa)
		shared := ref.DeriveTaskID(creator, 1000, "shared")

		a = tasklist.New(listID)
		actorA := tasklist.NewActor(creator)
		a.AddTask(shared, creator, 1000, "shared", "", actorA.Next())
		_ = a.Claim(shared, creator, 1100, actorA.Next())
		addTask(a, actorA, 1200, "only on A", "")

		b = tasklist.New(listID)
		actorB := tasklist.NewActor(testutil.PeerID(0xbb))
		b.AddTask(shared, creator, 1000, "shared", "b's view", actorB.Next())
		_ = b.Complete(shared, actorB.Peer(), 1150, actorB.Next())
		b.SetName("sprint board", 1000, actorB.Next())

		c = tasklist.New(listID)
		actorC := tasklist.NewActor(testutil.PeerID(0xcc))
		removedOnC := addTask(c, actorC, 1300, "transient", "")
		_ = c.RemoveTask(removedOnC, actorC.Next())
		c.SetName("the board", 1001, actorC.Next())
		return a, b, c
	}

	t.Run("commutative", func(t *testing.T) {
		a1, b1, _ := build()
		a2, b2, _ := build()
		if err := a1.Merge(b1); err != nil {
			t.Fatal(err)
		}
		if err := b2.Merge(a2); err != nil {
			t.Fatal(err)
		}
		requireSameState(t, "merge(a,b) vs merge(b,a)", a1, b2)
	})

	t.Run("associative", func(t *testing.T) {
		a1, b1, c1 := build()
		if err := b1.Merge(c1); err != nil {
			t.Fatal(err)
		}
		if err := a1.Merge(b1); err != nil {
			t.Fatal(err)
		}

		a2, b2, c2 := build()
		if err := a2.Merge(b2); err != nil {
			t.Fatal(err)
		}
		if err := a2.Merge(c2); err != nil {
			t.Fatal(err)
		}
		requireSameState(t, "associativity", a1, a2)
	})

	t.Run("idempotent", func(t *testing.T) {
		a, b, _ := build()
		if err := a.Merge(b); err != nil {
			t.Fatal(err)
		}
		snapshot := canonicalBytes(t, a)
		if err := a.Merge(b); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(snapshot, canonicalBytes(t, a)) {
			t.Error("re-merging already-absorbed state changed the result")
		}
	})
}

func TestMergeRejectsForeignList(t *testing.T) {
	a := tasklist.New(testutil.ListID(0x11))
	b := tasklist.New(testutil.ListID(0x22))
	if err := a.Merge(b); !errors.Is(err, tasklist.ErrListMismatch) {
		t.Errorf("cross-list merge: %v, want ErrListMismatch", err)
	}

	delta := b.ProduceDelta(nil)
	if _, err := a.ApplyDelta(delta); !errors.Is(err, tasklist.ErrListMismatch) {
		t.Errorf("cross-list delta: %v, want ErrListMismatch", err)
	}
}

func TestDeltaRoundTripAndIdempotence(t *testing.T) {
	producer := tasklist.New(listID)
	actor := tasklist.NewActor(testutil.PeerID(0xaa))
	id := addTask(producer, actor, 1000, "task one", "details")
	_ = producer.Claim(id, actor.Peer(), 1100, actor.Next())
	addTask(producer, actor, 1200, "task two", "")

	// Bootstrap: an empty marker yields the full state.
	delta := producer.ProduceDelta(nil)
	encoded, err := delta.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tasklist.DecodeDelta(encoded)
	if err != nil {
		t.Fatalf("DecodeDelta: %v", err)
	}

	consumer := tasklist.New(listID)
	changed, err := consumer.ApplyDelta(decoded)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !changed {
		t.Error("first application reported no change")
	}
	requireSameState(t, "bootstrap delta", producer, consumer)

	// Duplicate delivery: clean no-op.
	once := canonicalBytes(t, consumer)
	changed, err = consumer.ApplyDelta(decoded)
	if err != nil {
		t.Fatalf("ApplyDelta (replay): %v", err)
	}
	if changed {
		t.Error("replayed delta reported a change")
	}
	if !bytes.Equal(once, canonicalBytes(t, consumer)) {
		t.Error("replayed delta altered state")
	}

	// Incremental: only the new operation travels.
	marker := consumer.Vector.Clone()
	_ = producer.Complete(id, actor.Peer(), 2000, actor.Next())
	incremental := producer.ProduceDelta(marker)
	if incremental.Empty() {
		t.Fatal("incremental delta is empty despite a new operation")
	}
	if len(incremental.Tasks.Adds) != 0 {
		t.Error("incremental delta re-ships membership the marker covers")
	}
	if _, err := consumer.ApplyDelta(incremental); err != nil {
		t.Fatalf("ApplyDelta (incremental): %v", err)
	}
	requireSameState(t, "incremental delta", producer, consumer)
}

func TestDecodeDeltaRejectsGarbage(t *testing.T) {
	if _, err := tasklist.DecodeDelta([]byte("not cbor at all")); err == nil {
		t.Error("garbage payload decoded without error")
	}
	// A structurally-valid payload with a malformed identifier key
	// fails identifier validation, not silent truncation.
	if _, err := tasklist.DecodeDelta([]byte{0xa1, 0x64, 'l', 'i', 's', 't', 0x62, 'z', 'z'}); err == nil {
		t.Error("malformed list identifier decoded without error")
	}
}

func TestCompactPrunesRemovedTasks(t *testing.T) {
	list := tasklist.New(listID)
	actor := tasklist.NewActor(testutil.PeerID(0xaa))
	keep := addTask(list, actor, 1000, "keep", "")
	drop := addTask(list, actor, 1001, "drop", "")
	if err := list.RemoveTask(drop, actor.Next()); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}

	if pruned := list.Compact(); pruned != 1 {
		t.Errorf("Compact pruned %d tasks, want 1", pruned)
	}
	if _, ok := list.Items[drop]; ok {
		t.Error("compacted item still present")
	}
	if _, ok := list.Items[keep]; !ok {
		t.Error("live item was pruned")
	}
	// The tombstones stay: they are what keeps replayed adds dead.
	if len(list.Tasks.Removes) == 0 {
		t.Error("compaction dropped tombstones")
	}
}

func TestActorResume(t *testing.T) {
	peer := testutil.PeerID(0xaa)
	actor := tasklist.NewActor(peer)
	actor.Next()
	actor.Next()

	resumed := tasklist.NewActor(peer)
	resumed.Resume(crdt.Version{peer: 2, testutil.PeerID(0xbb): 9})
	if d := resumed.Next(); d.Seq != 3 {
		t.Errorf("resumed actor issued seq %d, want 3", d.Seq)
	}
}
