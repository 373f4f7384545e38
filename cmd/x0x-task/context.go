// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/saorsa-labs/x0x-go/cmd/x0x-task/cli"
	"github.com/saorsa-labs/x0x-go/lib/config"
	"github.com/saorsa-labs/x0x-go/lib/keyring"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/replica"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
	"github.com/saorsa-labs/x0x-go/lib/taskstore"
)

// commonFlags holds the flags shared by every command that touches a
// replica.
type commonFlags struct {
	config string
	list   string
}

// register adds the shared flags to a flag set.
func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "path to the x0x.yaml config file (default: $X0X_CONFIG)")
	fs.StringVar(&f.list, "list", "default", "list alias from the config file")
}

// newFlagSet returns a flag set preloaded with the shared flags.
func (f *commonFlags) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.register(fs)
	return fs
}

// loadConfig resolves the config file from --config or X0X_CONFIG.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	if f.config != "" {
		return config.LoadFile(f.config)
	}
	return config.Load()
}

// configPath returns the path the config was (or would be) loaded
// from, for commands that write it back.
func (f *commonFlags) configPath() (string, error) {
	if f.config != "" {
		return f.config, nil
	}
	if path := os.Getenv("X0X_CONFIG"); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("X0X_CONFIG environment variable not set; use --config")
}

// session is everything an open replica command needs, plus the
// cleanup to run when done.
type session struct {
	cfg    *config.Config
	list   config.ListConfig
	engine *replica.Engine
	store  *taskstore.Store
	keys   sealed.KeyProvider
	group  ref.GroupID
	epoch  uint64

	closers []func() error
}

// close flushes pending state and releases the storage backend.
func (s *session) close() error {
	var firstErr error
	if s.engine != nil {
		if err := s.engine.Flush(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openSession loads the config, opens the storage backend, and
// builds an engine for the selected list. withKeys additionally
// unlocks the keyring (prompting for the passphrase) so the session
// can seal and open deltas.
func openSession(ctx context.Context, flags *commonFlags, withKeys bool) (*session, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	list, err := cfg.List(flags.list)
	if err != nil {
		return nil, err
	}
	peer, err := cfg.PeerID()
	if err != nil {
		return nil, err
	}
	listID, err := ref.ParseListID(list.ID)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, list: list, epoch: list.Epoch}

	store, err := openStore(cfg, s)
	if err != nil {
		return nil, err
	}
	s.store = store

	engineCfg := replica.Config{
		ListID:     listID,
		Peer:       peer,
		Store:      store,
		Checkpoint: checkpointPolicy(cfg),
		Logger:     cli.NewCommandLogger(),
	}

	if withKeys {
		if cfg.Keyring == "" {
			return nil, fmt.Errorf("no keyring configured; sealed sync requires one")
		}
		group, err := ref.ParseGroupID(list.Group)
		if err != nil {
			return nil, err
		}
		ring, err := unlockKeyring(cfg.Keyring)
		if err != nil {
			s.close()
			return nil, err
		}
		s.keys = ring
		s.group = group
		engineCfg.Keys = ring
		engineCfg.Group = group
		engineCfg.Epoch = list.Epoch
	}

	engine, err := replica.New(ctx, engineCfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// openStore opens the configured storage backend and wraps it in a
// Store. The backend's Close lands on the session's closer stack.
func openStore(cfg *config.Config, s *session) (*taskstore.Store, error) {
	var storage taskstore.Storage
	switch cfg.Store.Backend {
	case "sqlite":
		backend, err := taskstore.OpenSQLiteStorage(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, backend.Close)
		storage = backend
	default:
		backend, err := taskstore.OpenFileStorage(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, backend.Close)
		storage = backend
	}

	compression := taskstore.CompressionNone
	if cfg.Store.Compression != "" {
		parsed, err := taskstore.ParseCompressionTag(cfg.Store.Compression)
		if err != nil {
			return nil, err
		}
		compression = parsed
	}

	return taskstore.NewStore(taskstore.StoreConfig{
		Storage:       storage,
		Logger:        cli.NewCommandLogger(),
		Compression:   compression,
		KeepSnapshots: cfg.Store.KeepSnapshots,
	})
}

// checkpointPolicy converts the config's checkpoint section.
func checkpointPolicy(cfg *config.Config) taskstore.CheckpointPolicy {
	cp := cfg.Store.Checkpoint
	return taskstore.CheckpointPolicy{
		MutationThreshold: cp.MutationThreshold,
		DirtyTimeFloor:    cp.DirtyTimeFloor.Std(),
		DebounceFloor:     cp.DebounceFloor.Std(),
	}
}

// unlockKeyring loads the keyring, taking the passphrase from
// X0X_PASSPHRASE when set (scripts, tests) and prompting on the
// terminal otherwise.
func unlockKeyring(path string) (*keyring.Keyring, error) {
	passphrase, err := readPassphrase("keyring passphrase: ")
	if err != nil {
		return nil, err
	}
	return keyring.Load(path, passphrase)
}

// readPassphrase reads a passphrase without echo. Non-interactive
// callers set X0X_PASSPHRASE instead.
func readPassphrase(prompt string) ([]byte, error) {
	if env, ok := os.LookupEnv("X0X_PASSPHRASE"); ok {
		return []byte(env), nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal; set X0X_PASSPHRASE for non-interactive use")
	}
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return passphrase, nil
}

// resolveTask parses a task reference: a full 64-char hex ID, or a
// unique hex prefix of a live task.
func resolveTask(engine *replica.Engine, raw string) (ref.TaskID, error) {
	if id, err := ref.ParseTaskID(raw); err == nil {
		return id, nil
	}
	var matches []ref.TaskID
	for _, task := range engine.TasksOrdered() {
		if len(raw) >= 4 && len(raw) <= 64 && hasHexPrefix(task.ID, raw) {
			matches = append(matches, task.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return ref.TaskID{}, fmt.Errorf("no task matches %q", raw)
	default:
		return ref.TaskID{}, fmt.Errorf("%q is ambiguous (%d matches); use more digits", raw, len(matches))
	}
}

func hasHexPrefix(id ref.TaskID, prefix string) bool {
	hex := id.String()
	return len(prefix) <= len(hex) && hex[:len(prefix)] == prefix
}

// printTasks renders an ordered task listing.
func printTasks(w io.Writer, tasks []tasklist.TaskSnapshot) {
	for _, task := range tasks {
		marker := "[ ]"
		switch task.State {
		case tasklist.StateClaimed:
			marker = "[~]"
		case tasklist.StateDone:
			marker = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", marker, task.ID.String()[:12], task.Title)
		if task.Priority != tasklist.PriorityNone {
			line += fmt.Sprintf("  (%s)", task.Priority)
		}
		if !task.Assignee.IsZero() {
			line += fmt.Sprintf("  @%s", task.Assignee.String()[:12])
		}
		fmt.Fprintln(w, line)
	}
}
