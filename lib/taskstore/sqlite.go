// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"sort"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteStorage keeps blobs as rows in one SQLite database: a single
// file on disk, transactional appends, and WAL crash safety in place
// of the file backend's rename dance. Suited to embedders that
// already carry a database or want everything in one portable file.
type SQLiteStorage struct {
	pool *sqlitex.Pool
	path string
}

// OpenSQLiteStorage opens (creating if needed) a SQLite-backed store
// at path. Use ":memory:" for tests.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	poolSize := 4
	uri := path
	if path == ":memory:" {
		// In-memory databases are per-connection; more than one
		// connection would see different data. The driver rejects the
		// bare ":memory:" spelling and requires the URI form.
		poolSize = 1
		uri = "file::memory:?mode=memory&cache=shared"
	}
	pool, err := sqlitex.NewPool(uri, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			pragmas := []string{
				"PRAGMA journal_mode=WAL",
				"PRAGMA synchronous=NORMAL",
				"PRAGMA busy_timeout=5000",
			}
			for _, pragma := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("%s: %w", pragma, err)
				}
			}
			return sqlitex.ExecuteTransient(conn,
				`CREATE TABLE IF NOT EXISTS blobs (
					name TEXT PRIMARY KEY,
					data BLOB NOT NULL
				)`, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening sqlite store %s: %v", ErrStorageIO, path, err)
	}
	return &SQLiteStorage{pool: pool, path: path}, nil
}

// Close closes the connection pool.
func (s *SQLiteStorage) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("%w: closing sqlite store %s: %v", ErrStorageIO, s.path, err)
	}
	return nil
}

// withConn borrows a connection for the duration of fn.
func (s *SQLiteStorage) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("%w: taking sqlite connection: %v", ErrStorageIO, err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// ReadBlob implements Storage.
func (s *SQLiteStorage) ReadBlob(ctx context.Context, name string) ([]byte, error) {
	if err := validateBlobName(name); err != nil {
		return nil, err
	}
	var data []byte
	found := false
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT data FROM blobs WHERE name = ?`, &sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				data = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, data)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageIO, name, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	return data, nil
}

// WriteBlob implements Storage. A single upsert statement is atomic
// under SQLite's transaction semantics.
func (s *SQLiteStorage) WriteBlob(ctx context.Context, name string, data []byte) error {
	if err := validateBlobName(name); err != nil {
		return err
	}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO blobs (name, data) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
			&sqlitex.ExecOptions{Args: []any{name, data}})
	})
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// AppendBlob implements Storage.
func (s *SQLiteStorage) AppendBlob(ctx context.Context, name string, data []byte) error {
	if err := validateBlobName(name); err != nil {
		return err
	}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO blobs (name, data) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET data = data || excluded.data`,
			&sqlitex.ExecOptions{Args: []any{name, data}})
	})
	if err != nil {
		return fmt.Errorf("%w: appending to %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// DeleteBlob implements Storage.
func (s *SQLiteStorage) DeleteBlob(ctx context.Context, name string) error {
	if err := validateBlobName(name); err != nil {
		return err
	}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `DELETE FROM blobs WHERE name = ?`,
			&sqlitex.ExecOptions{Args: []any{name}})
	})
	if err != nil {
		return fmt.Errorf("%w: deleting %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

// ListBlobs implements Storage.
func (s *SQLiteStorage) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT name FROM blobs`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				name := stmt.ColumnText(0)
				if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
					names = append(names, name)
				}
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing blobs under %q: %v", ErrStorageIO, prefix, err)
	}
	sort.Strings(names)
	return names, nil
}
