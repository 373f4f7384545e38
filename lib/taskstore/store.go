// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/saorsa-labs/x0x-go/lib/clock"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// DefaultKeepSnapshots is the retention default: how many snapshots
// of a list's lineage survive each new capture.
const DefaultKeepSnapshots = 3

// StoreConfig parameterizes a Store. Storage is required; the rest
// default sensibly.
type StoreConfig struct {
	// Storage is the durable byte layer.
	Storage Storage

	// Clock stamps snapshot capture times. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages (replay warnings,
	// retention sweeps). Defaults to a no-op logger.
	Logger *slog.Logger

	// Compression is the snapshot payload compression. Defaults to
	// CompressionLZ4; incompressible payloads fall back to none
	// automatically.
	Compression CompressionTag

	// KeepSnapshots is how many snapshots to retain per list.
	// Defaults to DefaultKeepSnapshots; values below 1 are raised
	// to 1 (the newest snapshot is never retention-collected).
	KeepSnapshots int
}

// Store persists task lists: one snapshot lineage plus one delta log
// per list, named under the list's hex prefix in the underlying
// Storage.
//
// Store methods do blob I/O and are never called under a list's
// mutation lock; lib/replica.Engine commits in memory first and
// calls here afterwards, so a storage failure costs durability, not
// correctness.
type Store struct {
	storage       Storage
	clock         clock.Clock
	logger        *slog.Logger
	compression   CompressionTag
	keepSnapshots int

	// logMu serializes log appends against the snapshot path's log
	// reset. Without it an append landing between a snapshot's state
	// capture and its log reset could be erased while covered by
	// neither.
	logMu sync.Mutex
}

// NewStore validates the configuration and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("taskstore: Storage is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Compression == CompressionNone {
		cfg.Compression = CompressionLZ4
	}
	if cfg.KeepSnapshots < 1 {
		cfg.KeepSnapshots = DefaultKeepSnapshots
	}
	return &Store{
		storage:       cfg.Storage,
		clock:         cfg.Clock,
		logger:        cfg.Logger,
		compression:   cfg.Compression,
		keepSnapshots: cfg.KeepSnapshots,
	}, nil
}

// listPrefix is the blob namespace of one list.
func listPrefix(id ref.ListID) string {
	return id.String() + "/"
}

// AppendDelta durably appends one applied delta to the list's log.
func (s *Store) AppendDelta(ctx context.Context, id ref.ListID, delta *tasklist.Delta) error {
	frame, err := frameDelta(delta)
	if err != nil {
		return err
	}
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return s.storage.AppendBlob(ctx, listPrefix(id)+logBlobName, frame)
}

// SaveSnapshot captures the list's full state: the snapshot blob is
// installed first, then the log is reset, then snapshots past the
// retention count are collected. A crash between the steps is safe —
// replaying a log whose deltas the snapshot already folded in is
// idempotent.
func (s *Store) SaveSnapshot(ctx context.Context, list *tasklist.TaskList) error {
	blob, err := EncodeSnapshot(list, s.compression)
	if err != nil {
		return err
	}

	capturedAtMS := s.clock.Now().UnixMilli()
	prefix := listPrefix(list.ID)
	name := prefix + snapshotName(capturedAtMS)
	if err := s.storage.WriteBlob(ctx, name, blob); err != nil {
		return err
	}
	s.logger.Info("snapshot captured",
		"list", list.ID.String(),
		"blob", name,
		"bytes", len(blob),
	)

	if err := s.resetLog(ctx, list); err != nil {
		return err
	}
	return s.collectSnapshots(ctx, list.ID)
}

// resetLog rewrites the delta log after a snapshot capture, keeping
// only frames the snapshot's vector does not cover. An append that
// landed after the snapshot state was captured survives the reset;
// everything the snapshot already folded in is dropped.
func (s *Store) resetLog(ctx context.Context, list *tasklist.TaskList) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	name := listPrefix(list.ID) + logBlobName
	logBlob, err := s.storage.ReadBlob(ctx, name)
	if errors.Is(err, ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	deltas, _, err := decodeLog(logBlob)
	if err != nil {
		return fmt.Errorf("resetting log for list %s: %w", list.ID, err)
	}

	var retained []byte
	kept := 0
	for _, delta := range deltas {
		if delta.CoveredBy(list.Vector) {
			continue
		}
		frame, err := frameDelta(delta)
		if err != nil {
			return err
		}
		retained = append(retained, frame...)
		kept++
	}
	if kept == 0 {
		return s.storage.DeleteBlob(ctx, name)
	}
	s.logger.Info("log reset kept uncovered deltas",
		"list", list.ID.String(),
		"kept", kept,
		"dropped", len(deltas)-kept,
	)
	return s.storage.WriteBlob(ctx, name, retained)
}

// collectSnapshots deletes the oldest snapshots past the retention
// count.
func (s *Store) collectSnapshots(ctx context.Context, id ref.ListID) error {
	names, err := s.snapshotNames(ctx, id)
	if err != nil {
		return err
	}
	if len(names) <= s.keepSnapshots {
		return nil
	}
	// Names are sorted ascending; fixed-width timestamps make that
	// oldest-first.
	for _, name := range names[:len(names)-s.keepSnapshots] {
		if err := s.storage.DeleteBlob(ctx, name); err != nil {
			return err
		}
		s.logger.Debug("snapshot collected", "list", id.String(), "blob", name)
	}
	return nil
}

// snapshotNames returns the list's snapshot blob names, sorted
// oldest first. Blobs under the list's prefix that do not parse as
// snapshot names are ignored (the log lives there too).
func (s *Store) snapshotNames(ctx context.Context, id ref.ListID) ([]string, error) {
	prefix := listPrefix(id)
	blobs, err := s.storage.ListBlobs(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, blob := range blobs {
		if _, err := parseSnapshotName(strings.TrimPrefix(blob, prefix)); err == nil {
			names = append(names, blob)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadList reconstructs a list: newest decodable snapshot, then
// every logged delta in order. Returns the reconstructed list and
// whether any persisted state existed; a list that was never
// persisted loads as a fresh empty state.
//
// A snapshot that fails to decode is quarantined (renamed out of the
// lineage) and the load falls back to the next-newest snapshot; only
// when every snapshot is damaged does the load fail, with
// ErrCorruptSnapshot. A corrupt log record still fails the load
// outright. A cleanly truncated log tail (crash during the final
// append) is dropped with a warning: the in-flight delta never
// finished committing and anti-entropy will re-deliver it.
func (s *Store) LoadList(ctx context.Context, id ref.ListID) (*tasklist.TaskList, bool, error) {
	list := tasklist.New(id)
	found := false

	names, err := s.snapshotNames(ctx, id)
	if err != nil {
		return nil, false, err
	}
	var snapErr error
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		blob, err := s.storage.ReadBlob(ctx, name)
		if err != nil {
			return nil, false, err
		}
		loaded, err := DecodeSnapshot(blob)
		if err == nil && loaded.ID != id {
			err = fmt.Errorf("%w: snapshot %s holds list %s", ErrCorruptSnapshot, name, loaded.ID)
		}
		if err != nil {
			snapErr = fmt.Errorf("loading %s: %w", name, err)
			s.logger.Warn("quarantining corrupt snapshot",
				"list", id.String(),
				"blob", name,
				"error", err.Error(),
			)
			s.quarantine(ctx, name, blob)
			continue
		}
		list = loaded
		found = true
		break
	}
	if !found && snapErr != nil {
		return nil, false, snapErr
	}

	logBlob, err := s.storage.ReadBlob(ctx, listPrefix(id)+logBlobName)
	if err != nil && !errors.Is(err, ErrBlobNotFound) {
		return nil, false, err
	}
	if err == nil {
		deltas, truncated, err := decodeLog(logBlob)
		if err != nil {
			return nil, false, fmt.Errorf("replaying log for list %s: %w", id, err)
		}
		if truncated > 0 {
			s.logger.Warn("dropping truncated delta log tail",
				"list", id.String(),
				"tail_bytes", truncated,
			)
		}
		for _, delta := range deltas {
			if _, err := list.ApplyDelta(delta); err != nil {
				return nil, false, fmt.Errorf("replaying log for list %s: %w", id, err)
			}
		}
		found = found || len(deltas) > 0
	}
	return list, found, nil
}

// quarantineSuffix marks a snapshot blob set aside after failing to
// decode. The suffix keeps the name from parsing as a snapshot, so
// the blob drops out of the lineage while staying on disk for
// inspection.
const quarantineSuffix = ".quarantine"

// quarantine moves a damaged snapshot aside so the next load does
// not trip over it again. Best-effort: the fallback to an older
// snapshot does not depend on it succeeding.
func (s *Store) quarantine(ctx context.Context, name string, blob []byte) {
	if err := s.storage.WriteBlob(ctx, name+quarantineSuffix, blob); err != nil {
		s.logger.Warn("quarantine copy failed", "blob", name, "error", err.Error())
		return
	}
	if err := s.storage.DeleteBlob(ctx, name); err != nil {
		s.logger.Warn("quarantine delete failed", "blob", name, "error", err.Error())
	}
}

// Lists enumerates every list with persisted state.
func (s *Store) Lists(ctx context.Context) ([]ref.ListID, error) {
	blobs, err := s.storage.ListBlobs(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[ref.ListID]bool)
	var ids []ref.ListID
	for _, blob := range blobs {
		slash := strings.IndexByte(blob, '/')
		if slash < 0 {
			continue
		}
		id, err := ref.ParseListID(blob[:slash])
		if err != nil {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DeleteList removes every blob of a list: its snapshots and its
// log. Used by the orphan sweep when a list leaves the replica's
// configured set.
func (s *Store) DeleteList(ctx context.Context, id ref.ListID) error {
	blobs, err := s.storage.ListBlobs(ctx, listPrefix(id))
	if err != nil {
		return err
	}
	for _, blob := range blobs {
		if err := s.storage.DeleteBlob(ctx, blob); err != nil {
			return err
		}
	}
	s.logger.Info("list state deleted", "list", id.String(), "blobs", len(blobs))
	return nil
}

// SweepOrphans deletes persisted state for every list not in keep.
// Returns the IDs swept.
func (s *Store) SweepOrphans(ctx context.Context, keep []ref.ListID) ([]ref.ListID, error) {
	wanted := make(map[ref.ListID]bool, len(keep))
	for _, id := range keep {
		wanted[id] = true
	}
	present, err := s.Lists(ctx)
	if err != nil {
		return nil, err
	}
	var swept []ref.ListID
	for _, id := range present {
		if wanted[id] {
			continue
		}
		if err := s.DeleteList(ctx, id); err != nil {
			return swept, err
		}
		swept = append(swept, id)
	}
	return swept, nil
}
