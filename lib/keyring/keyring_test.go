// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package keyring_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/saorsa-labs/x0x-go/lib/keyring"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
	"github.com/saorsa-labs/x0x-go/lib/testutil"
)

var _ sealed.KeyProvider = (*keyring.Keyring)(nil)

func TestResolveKeyDeterministicPerEpoch(t *testing.T) {
	ring := keyring.New()
	secret, err := keyring.NewMasterSecret()
	if err != nil {
		t.Fatalf("NewMasterSecret: %v", err)
	}
	group := testutil.GroupID(0x42)
	if err := ring.AddGroup(group, secret); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	ctx := context.Background()
	first, err := ring.ResolveKey(ctx, group, 1)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if len(first) != sealed.KeySize {
		t.Fatalf("derived key is %d bytes, want %d", len(first), sealed.KeySize)
	}

	again, err := ring.ResolveKey(ctx, group, 1)
	if err != nil {
		t.Fatalf("ResolveKey (repeat): %v", err)
	}
	if !bytes.Equal(first, again) {
		t.Error("same (group, epoch) derived different keys")
	}

	next, err := ring.ResolveKey(ctx, group, 2)
	if err != nil {
		t.Fatalf("ResolveKey (next epoch): %v", err)
	}
	if bytes.Equal(first, next) {
		t.Error("adjacent epochs derived the same key")
	}
}

func TestResolveKeyUnknownGroup(t *testing.T) {
	ring := keyring.New()
	_, err := ring.ResolveKey(context.Background(), testutil.GroupID(0x42), 1)
	if !errors.Is(err, sealed.ErrKeyUnavailable) {
		t.Errorf("unknown group: %v, want ErrKeyUnavailable", err)
	}
}

func TestAddGroupRejectsConflictingSecret(t *testing.T) {
	ring := keyring.New()
	group := testutil.GroupID(0x42)

	secretA, _ := keyring.NewMasterSecret()
	secretB, _ := keyring.NewMasterSecret()

	if err := ring.AddGroup(group, secretA); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	// Idempotent re-registration is fine.
	if err := ring.AddGroup(group, secretA); err != nil {
		t.Errorf("re-adding the same secret: %v", err)
	}
	if err := ring.AddGroup(group, secretB); err == nil {
		t.Error("replacing a group's master secret did not error")
	}
	if err := ring.AddGroup(group, secretA[:16]); err == nil {
		t.Error("short master secret accepted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.x0x")
	passphrase := []byte("correct horse battery staple")

	ring := keyring.New()
	group := testutil.GroupID(0x42)
	secret, _ := keyring.NewMasterSecret()
	if err := ring.AddGroup(group, secret); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := ring.Save(path, passphrase); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := keyring.Load(path, passphrase)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx := context.Background()
	want, err := ring.ResolveKey(ctx, group, 5)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	got, err := loaded.ResolveKey(ctx, group, 5)
	if err != nil {
		t.Fatalf("ResolveKey (loaded): %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Error("loaded keyring derives different keys")
	}
}

func TestLoadWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.x0x")
	ring := keyring.New()
	secret, _ := keyring.NewMasterSecret()
	if err := ring.AddGroup(testutil.GroupID(0x42), secret); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := ring.Save(path, []byte("right")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := keyring.Load(path, []byte("wrong")); !errors.Is(err, keyring.ErrWrongPassphrase) {
		t.Errorf("wrong passphrase: %v, want ErrWrongPassphrase", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := keyring.Load(filepath.Join(t.TempDir(), "absent"), []byte("p")); err == nil {
		t.Error("loading a missing keyring did not error")
	}
}
