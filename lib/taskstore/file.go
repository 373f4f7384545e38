// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// FileStorage keeps blobs as files under a root directory. Writes
// install atomically (temp file, fsync, rename, directory sync), so
// a crash mid-write never leaves a half-written blob visible under
// its final name.
//
// A flock on a lock file inside the root enforces one process per
// store: the delta log's append framing assumes a single writer, and
// two engines sharing a directory would interleave frames.
type FileStorage struct {
	root string
	lock *os.File
}

// lockFileName is the flock target inside the root directory. The
// leading dot keeps it out of blob listings (blob segments never
// start with a dot).
const lockFileName = ".lock"

// OpenFileStorage opens (creating if needed) a file-backed store
// rooted at dir and acquires its single-writer lock. Fails if
// another process holds the lock.
func OpenFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating store root %s: %v", ErrStorageIO, dir, err)
	}
	lock, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening store lock: %v", ErrStorageIO, err)
	}
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lock.Close()
		return nil, fmt.Errorf("%w: store %s is locked by another process: %v", ErrStorageIO, dir, err)
	}
	return &FileStorage{root: dir, lock: lock}, nil
}

// Close releases the single-writer lock. Blob files need no
// teardown; every operation syncs before returning.
func (s *FileStorage) Close() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Close()
	s.lock = nil
	if err != nil {
		return fmt.Errorf("%w: releasing store lock: %v", ErrStorageIO, err)
	}
	return nil
}

// path maps a validated blob name to its file path.
func (s *FileStorage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// ReadBlob implements Storage.
func (s *FileStorage) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateBlobName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageIO, name, err)
	}
	return data, nil
}

// WriteBlob implements Storage. The blob is written to a temporary
// file in the destination directory, synced, renamed over the final
// name, and the directory is synced so the rename itself is durable.
func (s *FileStorage) WriteBlob(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBlobName(name); err != nil {
		return err
	}
	target := s.path(name)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStorageIO, name, err)
	}

	temp, err := os.CreateTemp(dir, ".write-*")
	if err != nil {
		return fmt.Errorf("%w: creating temporary file for %s: %v", ErrStorageIO, name, err)
	}
	tempPath := temp.Name()
	cleanup := func(stage string, cause error) error {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: %s %s: %v", ErrStorageIO, stage, name, cause)
	}

	if _, err := temp.Write(data); err != nil {
		return cleanup("writing", err)
	}
	if err := temp.Sync(); err != nil {
		return cleanup("syncing", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: closing temporary file for %s: %v", ErrStorageIO, name, err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: installing %s: %v", ErrStorageIO, name, err)
	}
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("%w: syncing directory of %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// AppendBlob implements Storage.
func (s *FileStorage) AppendBlob(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBlobName(name); err != nil {
		return err
	}
	target := s.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStorageIO, name, err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s for append: %v", ErrStorageIO, name, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("%w: appending to %s: %v", ErrStorageIO, name, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("%w: syncing %s: %v", ErrStorageIO, name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// DeleteBlob implements Storage.
func (s *FileStorage) DeleteBlob(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBlobName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: deleting %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// ListBlobs implements Storage.
func (s *FileStorage) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relative)
		// Skip the lock file and any in-flight temporaries.
		if strings.HasPrefix(filepath.Base(name), ".") {
			return nil
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing blobs under %q: %v", ErrStorageIO, prefix, err)
	}
	sort.Strings(names)
	return names, nil
}

// syncDir fsyncs a directory so a completed rename survives a crash.
func syncDir(dir string) error {
	handle, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer handle.Close()
	return handle.Sync()
}
