// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saorsa-labs/x0x-go/lib/config"
	"github.com/saorsa-labs/x0x-go/lib/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x0x.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	peer := testutil.PeerID(0xAA)
	list := testutil.ListID(0x11)
	group := testutil.GroupID(0x77)

	path := writeConfig(t, `
identity:
  peer: `+peer.String()+`
store:
  backend: sqlite
  path: /tmp/x0x.db
  compression: zstd
  keep_snapshots: 5
  checkpoint:
    mutation_threshold: 16
    dirty_time_floor: 1m
    debounce_floor: 500ms
keyring: /tmp/keyring.age
lists:
  work:
    id: `+list.String()+`
    group: `+group.String()+`
    epoch: 7
`)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	got, err := cfg.PeerID()
	if err != nil {
		t.Fatalf("PeerID: %v", err)
	}
	if got != peer {
		t.Errorf("peer = %s, want %s", got, peer)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/x0x.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Checkpoint.DirtyTimeFloor != config.Duration(time.Minute) {
		t.Errorf("dirty_time_floor = %v", cfg.Store.Checkpoint.DirtyTimeFloor)
	}

	work, err := cfg.List("work")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if work.Epoch != 7 {
		t.Errorf("epoch = %d", work.Epoch)
	}
	if _, err := cfg.List("missing"); err == nil {
		t.Error("unknown alias resolved")
	}
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfig(t, "store:\n  path: /tmp/store\n")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("default backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Compression != "lz4" {
		t.Errorf("default compression = %q", cfg.Store.Compression)
	}
	// No identity yet: PeerID points at init.
	if _, err := cfg.PeerID(); err == nil {
		t.Error("empty identity produced a peer ID")
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	t.Setenv("HOME", "/home/probe")
	path := writeConfig(t, `
store:
  path: ${HOME}/x0x/store
keyring: ${X0X_MISSING:-/fallback}/keyring.age
`)
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Path != "/home/probe/x0x/store" {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if cfg.Keyring != "/fallback/keyring.age" {
		t.Errorf("keyring = %q", cfg.Keyring)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer: not-hex
store:
  backend: floppy
  path: ""
  compression: brotli
lists:
  bad:
    id: short
`)
	_, err := config.LoadFile(path)
	if err == nil {
		t.Fatal("invalid config loaded")
	}
	for _, want := range []string{"identity.peer", "store.backend", "store.path", "store.compression", "lists.bad.id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestValidateRequiresGroupWithKeyring(t *testing.T) {
	list := testutil.ListID(0x11)
	path := writeConfig(t, `
store:
  path: /tmp/store
keyring: /tmp/keyring.age
lists:
  work:
    id: ` + list.String() + `
`)
	_, err := config.LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "group is required") {
		t.Fatalf("missing group accepted: %v", err)
	}
}

func TestLoadRequiresEnv(t *testing.T) {
	t.Setenv("X0X_CONFIG", "")
	if _, err := config.Load(); err == nil {
		t.Fatal("Load succeeded without X0X_CONFIG")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	peer := testutil.PeerID(0xAA)
	cfg := config.Default()
	cfg.Identity.Peer = peer.String()
	cfg.Store.Path = "/tmp/store"

	path := filepath.Join(t.TempDir(), "nested", "x0x.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile after Save: %v", err)
	}
	if loaded.Identity.Peer != peer.String() {
		t.Errorf("peer after round trip = %q", loaded.Identity.Peer)
	}
}
