// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package replica_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saorsa-labs/x0x-go/lib/clock"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/replica"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
	"github.com/saorsa-labs/x0x-go/lib/taskstore"
	"github.com/saorsa-labs/x0x-go/lib/testutil"
)

var listID = testutil.ListID(0x11)

// newPair wires two engines over a loopback hub. Each engine gets
// its own fake clock so the test controls every timestamp.
func newPair(t *testing.T, cfg func(*replica.Config)) (*replica.Engine, *replica.Engine) {
	t.Helper()
	hub := replica.NewLoopback()
	a := newEngine(t, testutil.PeerID(0xAA), hub, cfg)
	b := newEngine(t, testutil.PeerID(0xBB), hub, cfg)
	return a, b
}

func newEngine(t *testing.T, peer ref.PeerID, hub *replica.Loopback, mutate func(*replica.Config)) *replica.Engine {
	t.Helper()
	endpoint := hub.Endpoint()
	cfg := replica.Config{
		ListID:    listID,
		Peer:      peer,
		Clock:     clock.Fake(time.UnixMilli(1_000_000)),
		Transport: endpoint,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := replica.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	endpoint.SetHandler(engine.HandleIncoming)
	return engine
}

func TestEngineConvergesOverLoopback(t *testing.T) {
	ctx := context.Background()
	a, b := newPair(t, nil)

	id, err := a.AddTask(ctx, "ship release", "cut the tag")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := b.ClaimTask(ctx, id); err != nil {
		t.Fatalf("ClaimTask on b: %v", err)
	}
	if err := a.CompleteTask(ctx, id); err != nil {
		t.Fatalf("CompleteTask on a: %v", err)
	}

	for name, engine := range map[string]*replica.Engine{"a": a, "b": b} {
		tasks := engine.TasksOrdered()
		if len(tasks) != 1 {
			t.Fatalf("%s: tasks = %d, want 1", name, len(tasks))
		}
		if tasks[0].ID != id {
			t.Errorf("%s: task ID = %s, want %s", name, tasks[0].ID, id)
		}
		if tasks[0].Title != "ship release" {
			t.Errorf("%s: title = %q", name, tasks[0].Title)
		}
	}

	if !a.Version().Equal(b.Version()) {
		t.Errorf("vectors diverged: a=%v b=%v", a.Version(), b.Version())
	}
}

func TestEngineSealedConvergence(t *testing.T) {
	ctx := context.Background()
	group := testutil.GroupID(0x77)
	key := make([]byte, sealed.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	keys := sealed.StaticKeys{}
	keys.Add(group, 3, key)

	a, b := newPair(t, func(cfg *replica.Config) {
		cfg.Keys = keys
		cfg.Group = group
		cfg.Epoch = 3
	})

	id, err := a.AddTask(ctx, "rotate keys", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := b.Task(id); err != nil {
		t.Fatalf("task did not reach b through sealed transport: %v", err)
	}
}

func TestEngineSealedRejectsWrongEpoch(t *testing.T) {
	ctx := context.Background()
	group := testutil.GroupID(0x77)
	key := make([]byte, sealed.KeySize)
	keys := sealed.StaticKeys{}
	keys.Add(group, 1, key)
	keys.Add(group, 2, key)

	hub := replica.NewLoopback()
	a := newEngine(t, testutil.PeerID(0xAA), hub, func(cfg *replica.Config) {
		cfg.Keys = keys
		cfg.Group = group
		cfg.Epoch = 1
	})
	b := newEngine(t, testutil.PeerID(0xBB), hub, func(cfg *replica.Config) {
		cfg.Keys = keys
		cfg.Group = group
		cfg.Epoch = 2
	})
	_ = b

	_, err := a.AddTask(ctx, "stale epoch", "")
	if !errors.Is(err, sealed.ErrEpochMismatch) {
		t.Fatalf("cross-epoch broadcast error = %v, want ErrEpochMismatch", err)
	}
	// The local commit stands even though delivery failed.
	if got := len(a.TasksOrdered()); got != 1 {
		t.Errorf("a tasks after failed broadcast = %d, want 1", got)
	}
	if got := len(b.TasksOrdered()); got != 0 {
		t.Errorf("b tasks after rejected payload = %d, want 0", got)
	}
}

func TestEngineWatchCoalesces(t *testing.T) {
	ctx := context.Background()
	a, b := newPair(t, nil)

	watch := b.Watch()
	defer b.Unwatch(watch)

	if _, err := a.AddTask(ctx, "one", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := a.AddTask(ctx, "two", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// Two changes, one pending coalesced signal.
	testutil.RequireReceive(t, watch, time.Second, "watch signal")
	select {
	case <-watch:
		t.Error("second signal pending; expected coalescing")
	default:
	}

	if got := len(b.TasksOrdered()); got != 2 {
		t.Errorf("b tasks after drain = %d, want 2", got)
	}
}

func TestEngineUnwatchClosesChannel(t *testing.T) {
	a, _ := newPair(t, nil)
	watch := a.Watch()
	a.Unwatch(watch)
	testutil.RequireClosed(t, watch, time.Second, "unwatched channel")
}

func TestEngineDuplicateDeliveryIsSilent(t *testing.T) {
	ctx := context.Background()
	a, b := newPair(t, nil)

	if _, err := a.AddTask(ctx, "once", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// Re-deliver the full state; everything in it is already known.
	payload, err := a.ProduceDelta(nil).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	watch := b.Watch()
	defer b.Unwatch(watch)
	if err := b.HandleIncoming(ctx, payload); err != nil {
		t.Fatalf("HandleIncoming duplicate: %v", err)
	}
	select {
	case <-watch:
		t.Error("duplicate delivery notified watchers")
	default:
	}
}

func TestEngineRejectsGarbagePayload(t *testing.T) {
	a, _ := newPair(t, nil)
	if err := a.HandleIncoming(context.Background(), []byte("not cbor")); err == nil {
		t.Fatal("garbage payload accepted")
	}
}

func TestEnginePersistsAndResumes(t *testing.T) {
	ctx := context.Background()
	storage, err := taskstore.OpenFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileStorage: %v", err)
	}
	defer storage.Close()
	store, err := taskstore.NewStore(taskstore.StoreConfig{Storage: storage})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	peer := testutil.PeerID(0xAA)
	fake := clock.Fake(time.UnixMilli(1_000_000))
	open := func() *replica.Engine {
		engine, err := replica.New(ctx, replica.Config{
			ListID: listID,
			Peer:   peer,
			Clock:  fake,
			Store:  store,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return engine
	}

	first := open()
	id, err := first.AddTask(ctx, "durable", "survives restart")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	before := first.Version()

	// A new engine over the same store replays the log.
	second := open()
	task, err := second.Task(id)
	if err != nil {
		t.Fatalf("task lost across restart: %v", err)
	}
	if task.Description != "survives restart" {
		t.Errorf("description = %q", task.Description)
	}
	if !second.Version().Equal(before) {
		t.Errorf("vector after restart = %v, want %v", second.Version(), before)
	}

	// The resumed actor must not re-issue sequence numbers: a fresh
	// mutation advances the own-peer entry past the restored one.
	if _, err := second.AddTask(ctx, "post-restart", ""); err != nil {
		t.Fatalf("AddTask after restart: %v", err)
	}
	if got, want := second.Version()[peer], before[peer]+1; got != want {
		t.Errorf("own seq after restart mutation = %d, want %d", got, want)
	}
}

func TestEngineCheckpointResetsLog(t *testing.T) {
	ctx := context.Background()
	storage, err := taskstore.OpenFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileStorage: %v", err)
	}
	defer storage.Close()
	store, err := taskstore.NewStore(taskstore.StoreConfig{Storage: storage})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	fake := clock.Fake(time.UnixMilli(1_000_000))
	engine, err := replica.New(ctx, replica.Config{
		ListID: listID,
		Peer:   testutil.PeerID(0xAA),
		Clock:  fake,
		Store:  store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := engine.AddTask(ctx, "checkpoint me", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	action, err := engine.MaybeCheckpoint(ctx, true)
	if err != nil {
		t.Fatalf("MaybeCheckpoint: %v", err)
	}
	if action != taskstore.ActionPersist {
		t.Fatalf("explicit checkpoint action = %v", action)
	}

	// Clean state skips even explicitly.
	action, err = engine.MaybeCheckpoint(ctx, true)
	if err != nil {
		t.Fatalf("MaybeCheckpoint clean: %v", err)
	}
	if action != taskstore.ActionSkipClean {
		t.Errorf("clean checkpoint action = %v", action)
	}

	// A restart loads from the snapshot alone.
	restarted, err := replica.New(ctx, replica.Config{
		ListID: listID,
		Peer:   testutil.PeerID(0xAA),
		Clock:  fake,
		Store:  store,
	})
	if err != nil {
		t.Fatalf("New after checkpoint: %v", err)
	}
	if got := len(restarted.TasksOrdered()); got != 1 {
		t.Errorf("tasks after snapshot-only load = %d, want 1", got)
	}
}

func TestEngineReorder(t *testing.T) {
	ctx := context.Background()
	a, b := newPair(t, nil)

	first, err := a.AddTask(ctx, "first", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	second, err := a.AddTask(ctx, "second", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := b.Reorder(ctx, []ref.TaskID{second, first}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	for name, engine := range map[string]*replica.Engine{"a": a, "b": b} {
		tasks := engine.TasksOrdered()
		if len(tasks) != 2 || tasks[0].ID != second || tasks[1].ID != first {
			t.Errorf("%s: order not applied: %v", name, taskIDs(tasks))
		}
	}
}

func taskIDs(tasks []tasklist.TaskSnapshot) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID.String()
	}
	return ids
}
