// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package replica

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saorsa-labs/x0x-go/lib/clock"
	"github.com/saorsa-labs/x0x-go/lib/crdt"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
	"github.com/saorsa-labs/x0x-go/lib/taskstore"
)

// Config parameterizes an Engine. ListID and Peer are required; the
// rest enable optional wiring.
type Config struct {
	// ListID is the list this engine replicates.
	ListID ref.ListID

	// Peer is this replica's identity. Local mutations are stamped
	// with it and claims are recorded under it.
	Peer ref.PeerID

	// Clock supplies the wall-clock timestamps that decide
	// last-writer-wins and checkbox conflicts. Defaults to
	// clock.Real(); tests inject clock.Fake.
	Clock clock.Clock

	// Store, when set, persists every applied delta and receives
	// checkpoints. An engine without a store is memory-only.
	Store *taskstore.Store

	// Checkpoint tunes when the store captures snapshots. Zero
	// fields take the defaults.
	Checkpoint taskstore.CheckpointPolicy

	// Transport, when set, receives every locally-produced delta
	// for broadcast. Inbound payloads are the embedder's to route
	// into HandleIncoming.
	Transport Transport

	// Keys, Group, and Epoch configure sealing. When Keys is set,
	// outbound deltas are sealed for (Group, Epoch) and inbound
	// payloads are expected in the sealed wire form; when nil,
	// payloads are plain encoded deltas (trusted transports,
	// tests).
	Keys  sealed.KeyProvider
	Group ref.GroupID
	Epoch uint64

	// Logger receives operational messages. Defaults to no-op.
	Logger *slog.Logger
}

// Engine is one replica's running task list. All exported methods
// are safe for concurrent use: mutations serialize on a write lock,
// reads share a read lock.
type Engine struct {
	listID ref.ListID
	clock  clock.Clock
	logger *slog.Logger

	store     *taskstore.Store
	transport Transport
	keys      sealed.KeyProvider
	group     ref.GroupID
	epoch     uint64

	mu        sync.RWMutex
	list      *tasklist.TaskList
	actor     *tasklist.Actor
	scheduler *taskstore.CheckpointScheduler

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}
}

// New loads (or freshly creates) the list state and returns a
// running engine. When a store is configured, persisted state is
// replayed and the actor's sequence resumes past every own-peer dot
// found in it, so a restarted replica never re-issues a tag.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.ListID.IsZero() {
		return nil, fmt.Errorf("replica: ListID is required")
	}
	if cfg.Peer.IsZero() {
		return nil, fmt.Errorf("replica: Peer is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Keys != nil && cfg.Group.IsZero() {
		return nil, fmt.Errorf("replica: sealing requires a Group")
	}

	list := tasklist.New(cfg.ListID)
	if cfg.Store != nil {
		loaded, found, err := cfg.Store.LoadList(ctx, cfg.ListID)
		if err != nil {
			return nil, fmt.Errorf("loading list %s: %w", cfg.ListID, err)
		}
		list = loaded
		if found {
			cfg.Logger.Info("list state loaded",
				"list", cfg.ListID.String(),
				"tasks", len(list.TasksOrdered()),
			)
		}
	}

	actor := tasklist.NewActor(cfg.Peer)
	actor.Resume(list.Vector)

	return &Engine{
		listID:    cfg.ListID,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		store:     cfg.Store,
		transport: cfg.Transport,
		keys:      cfg.Keys,
		group:     cfg.Group,
		epoch:     cfg.Epoch,
		list:      list,
		actor:     actor,
		scheduler: taskstore.NewCheckpointScheduler(cfg.Checkpoint, cfg.Clock),
		watchers:  make(map[chan struct{}]struct{}),
	}, nil
}

// ListID returns the replicated list's identity.
func (e *Engine) ListID() ref.ListID { return e.listID }

// Peer returns this replica's identity.
func (e *Engine) Peer() ref.PeerID { return e.actor.Peer() }

// mutate runs one local mutation under the write lock and returns
// the delta covering exactly what it changed. A failed mutation
// (unknown task, bad reorder) leaves a gap in the actor's sequence;
// gaps are harmless because nothing ever references an unissued dot.
func (e *Engine) mutate(fn func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error) (*tasklist.Delta, error) {
	e.mu.Lock()
	before := e.list.Vector.Clone()
	nowMS := e.clock.Now().UnixMilli()
	if err := fn(e.list, e.actor.Next(), nowMS); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	delta := e.list.ProduceDelta(before)
	e.scheduler.NoteMutation()
	e.mu.Unlock()
	return delta, nil
}

// commit finishes a committed mutation: notify watchers, then
// persist and broadcast the delta. The in-memory change already
// stands; a failure here costs durability or propagation and is
// reported so the caller can decide, but it never rolls back state.
func (e *Engine) commit(ctx context.Context, delta *tasklist.Delta, broadcast bool) error {
	e.notify()

	if e.store != nil {
		if err := e.store.AppendDelta(ctx, e.listID, delta); err != nil {
			return fmt.Errorf("state committed in memory, log append failed: %w", err)
		}
	}
	if broadcast && e.transport != nil {
		payload, err := e.outboundPayload(ctx, delta)
		if err != nil {
			return err
		}
		if err := e.transport.Broadcast(ctx, payload); err != nil {
			return fmt.Errorf("state committed, broadcast failed: %w", err)
		}
	}
	return nil
}

// outboundPayload encodes (and, when keys are configured, seals) a
// delta for the transport.
func (e *Engine) outboundPayload(ctx context.Context, delta *tasklist.Delta) ([]byte, error) {
	if e.keys == nil {
		return delta.Encode()
	}
	key, err := e.keys.ResolveKey(ctx, e.group, e.epoch)
	if err != nil {
		return nil, fmt.Errorf("state committed, sealing key unavailable: %w", err)
	}
	encrypted, err := sealed.Seal(delta, e.group, e.epoch, key)
	if err != nil {
		return nil, fmt.Errorf("state committed, sealing failed: %w", err)
	}
	return encrypted.Encode(), nil
}

// AddTask creates a task with a content-derived identifier and
// returns it. Creating the same (title, time) twice on concurrent
// replicas converges to one task carrying both sides' state.
func (e *Engine) AddTask(ctx context.Context, title, description string) (ref.TaskID, error) {
	var id ref.TaskID
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		id = ref.DeriveTaskID(e.actor.Peer(), nowMS, title)
		list.AddTask(id, e.actor.Peer(), nowMS, title, description, dot)
		return nil
	})
	if err != nil {
		return ref.TaskID{}, err
	}
	return id, e.commit(ctx, delta, true)
}

// RemoveTask removes a task from the live set.
func (e *Engine) RemoveTask(ctx context.Context, id ref.TaskID) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, _ int64) error {
		return list.RemoveTask(id, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// ClaimTask records this peer claiming the task.
func (e *Engine) ClaimTask(ctx context.Context, id ref.TaskID) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.Claim(id, e.actor.Peer(), nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// CompleteTask records this peer completing the task.
func (e *Engine) CompleteTask(ctx context.Context, id ref.TaskID) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.Complete(id, e.actor.Peer(), nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// UpdateTitle writes the task's title.
func (e *Engine) UpdateTitle(ctx context.Context, id ref.TaskID, title string) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.SetTitle(id, title, nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// UpdateDescription writes the task's description.
func (e *Engine) UpdateDescription(ctx context.Context, id ref.TaskID, description string) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.SetDescription(id, description, nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// UpdateAssignee writes the task's assignee; the zero peer clears
// it.
func (e *Engine) UpdateAssignee(ctx context.Context, id ref.TaskID, assignee ref.PeerID) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.SetAssignee(id, assignee, nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// UpdatePriority writes the task's priority.
func (e *Engine) UpdatePriority(ctx context.Context, id ref.TaskID, priority tasklist.Priority) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.SetPriority(id, priority, nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// UpdateName writes the list's display name.
func (e *Engine) UpdateName(ctx context.Context, name string) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		list.SetName(name, nowMS, dot)
		return nil
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// Reorder rewrites the display order. The order must name every
// live task exactly once; a bad order mutates nothing.
func (e *Engine) Reorder(ctx context.Context, order []ref.TaskID) error {
	delta, err := e.mutate(func(list *tasklist.TaskList, dot crdt.Dot, nowMS int64) error {
		return list.Reorder(order, nowMS, dot)
	})
	if err != nil {
		return err
	}
	return e.commit(ctx, delta, true)
}

// TasksOrdered returns a snapshot of the live tasks in display
// order.
func (e *Engine) TasksOrdered() []tasklist.TaskSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.list.TasksOrdered()
}

// Task returns one live task's snapshot.
func (e *Engine) Task(id ref.TaskID) (tasklist.TaskSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.list.Snapshot(id)
}

// Name returns the list's display name.
func (e *Engine) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	name, _ := e.list.Name.Get()
	return name
}

// Version returns a copy of the replica's observed version vector:
// the marker for ProduceDelta.
func (e *Engine) Version() crdt.Version {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.list.Vector.Clone()
}

// ProduceDelta returns the state a replica holding the given marker
// is missing. An empty marker yields the full state (bootstrap).
func (e *Engine) ProduceDelta(since crdt.Version) *tasklist.Delta {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.list.ProduceDelta(since)
}

// HandleIncoming applies one payload from the transport: sealed wire
// form when keys are configured, plain encoded delta otherwise.
// Duplicated and reordered payloads apply cleanly; watchers are only
// notified when the payload carried something new. The opened delta
// is appended to the log but never re-broadcast — propagation is the
// gossip layer's job.
func (e *Engine) HandleIncoming(ctx context.Context, payload []byte) error {
	delta, err := e.openIncoming(ctx, payload)
	if err != nil {
		return err
	}

	e.mu.Lock()
	changed, err := e.list.ApplyDelta(delta)
	if err == nil && changed {
		e.scheduler.NoteMutation()
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return e.commit(ctx, delta, false)
}

// openIncoming decodes (and, when sealing is configured, opens) a
// transport payload. Key resolution happens here, outside the list
// lock.
func (e *Engine) openIncoming(ctx context.Context, payload []byte) (*tasklist.Delta, error) {
	if e.keys == nil {
		return tasklist.DecodeDelta(payload)
	}
	encrypted, err := sealed.Decode(payload)
	if err != nil {
		return nil, err
	}
	return sealed.Open(ctx, encrypted, e.group, e.epoch, e.keys)
}

// MaybeCheckpoint consults the checkpoint policy and captures a
// snapshot when one is due. Explicit requests (shutdown, a user
// flush) bypass the policy thresholds but still skip clean state.
// Returns the action taken.
func (e *Engine) MaybeCheckpoint(ctx context.Context, explicit bool) (taskstore.CheckpointAction, error) {
	if e.store == nil {
		return taskstore.ActionSkipPolicy, nil
	}

	e.mu.RLock()
	action := e.scheduler.Decide(explicit)
	if action != taskstore.ActionPersist {
		e.mu.RUnlock()
		return action, nil
	}
	// Deep-copy the state under the read lock; the blob write
	// happens after release so a slow disk never blocks mutations.
	snapshot := tasklist.New(e.listID)
	err := snapshot.Merge(e.list)
	e.mu.RUnlock()
	if err != nil {
		return action, err
	}

	if err := e.store.SaveSnapshot(ctx, snapshot); err != nil {
		return action, err
	}
	e.mu.Lock()
	e.scheduler.NoteCaptured()
	e.mu.Unlock()
	return action, nil
}

// Flush captures a snapshot if anything changed since the last one.
// Called at shutdown.
func (e *Engine) Flush(ctx context.Context) error {
	_, err := e.MaybeCheckpoint(ctx, true)
	return err
}
