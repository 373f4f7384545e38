// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
	"golang.org/x/crypto/hkdf"

	"github.com/saorsa-labs/x0x-go/lib/codec"
	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/sealed"
)

// SecretSize is the size in bytes of a group master secret.
const SecretSize = 32

// fileVersion is the schema version of the keyring payload. Bumped
// only for incompatible layout changes; Load rejects versions it
// does not know.
const fileVersion = 1

// hkdfInfoPrefix is the domain-separation prefix of the HKDF info
// parameter for per-epoch delta keys. Changing it retires every key
// ever derived.
var hkdfInfoPrefix = []byte("x0x.delta.epoch")

// ErrWrongPassphrase means the keyring file could not be decrypted
// with the supplied passphrase.
var ErrWrongPassphrase = errors.New("keyring passphrase is incorrect")

// keyringFile is the CBOR payload sealed inside the age envelope.
type keyringFile struct {
	Version int                    `cbor:"version"`
	Groups  map[ref.GroupID][]byte `cbor:"groups"`
}

// Keyring holds group master secrets and derives per-epoch delta
// keys from them. Safe for concurrent use: resolution is a read,
// and the rare mutations (adding a group) take the write lock.
type Keyring struct {
	mu     sync.RWMutex
	groups map[ref.GroupID][]byte
}

// New returns an empty keyring.
func New() *Keyring {
	return &Keyring{groups: make(map[ref.GroupID][]byte)}
}

// NewMasterSecret generates a fresh random group master secret.
func NewMasterSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("generating group master secret: %w", err)
	}
	return secret, nil
}

// AddGroup registers a master secret for a group. Re-registering a
// group with a different secret is an error: silently replacing the
// secret would orphan every delta sealed under the old one.
func (k *Keyring) AddGroup(group ref.GroupID, secret []byte) error {
	if len(secret) != SecretSize {
		return fmt.Errorf("group %s: master secret must be %d bytes, got %d", group, SecretSize, len(secret))
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.groups[group]; ok {
		if !bytes.Equal(existing, secret) {
			return fmt.Errorf("group %s already has a different master secret", group)
		}
		return nil
	}
	k.groups[group] = append([]byte(nil), secret...)
	return nil
}

// Groups returns the IDs of every registered group.
func (k *Keyring) Groups() []ref.GroupID {
	k.mu.RLock()
	defer k.mu.RUnlock()
	ids := make([]ref.GroupID, 0, len(k.groups))
	for id := range k.groups {
		ids = append(ids, id)
	}
	return ids
}

// ResolveKey implements sealed.KeyProvider: HKDF-SHA256 over the
// group's master secret with the (group, epoch) pair in the info
// parameter. Unknown groups fail sealed.ErrKeyUnavailable.
func (k *Keyring) ResolveKey(_ context.Context, group ref.GroupID, epoch uint64) ([]byte, error) {
	k.mu.RLock()
	secret, ok := k.groups[group]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: group %s is not in the keyring", sealed.ErrKeyUnavailable, group)
	}
	return deriveEpochKey(secret, group, epoch)
}

// deriveEpochKey derives the per-epoch delta key. The salt is nil:
// the master secret is already uniformly random, so HKDF's extract
// phase with a zero key is appropriate per RFC 5869.
func deriveEpochKey(secret []byte, group ref.GroupID, epoch uint64) ([]byte, error) {
	info := make([]byte, 0, len(hkdfInfoPrefix)+len(group)+8)
	info = append(info, hkdfInfoPrefix...)
	info = append(info, group[:]...)
	info = binary.BigEndian.AppendUint64(info, epoch)

	reader := hkdf.New(sha256.New, secret, nil, info)
	key := make([]byte, sealed.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("deriving epoch key for group %s epoch %d: %w", group, epoch, err)
	}
	return key, nil
}

// Save seals the keyring to path under the passphrase. The write is
// atomic: the envelope lands in a temporary file first and is
// renamed over the target, so a crash never leaves a truncated
// keyring where a good one was.
func (k *Keyring) Save(path string, passphrase []byte) error {
	recipient, err := age.NewScryptRecipient(string(passphrase))
	if err != nil {
		return fmt.Errorf("preparing keyring passphrase recipient: %w", err)
	}

	k.mu.RLock()
	payload, err := codec.Marshal(keyringFile{Version: fileVersion, Groups: k.groups})
	k.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding keyring: %w", err)
	}

	var envelope bytes.Buffer
	writer, err := age.Encrypt(&envelope, recipient)
	if err != nil {
		return fmt.Errorf("creating keyring encryptor: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("sealing keyring: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing keyring encryption: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(path), ".keyring-*")
	if err != nil {
		return fmt.Errorf("creating temporary keyring file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(envelope.Bytes()); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing keyring file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("syncing keyring file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing keyring file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("restricting keyring permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("installing keyring file: %w", err)
	}
	return nil
}

// Load opens the keyring at path with the passphrase.
func Load(path string, passphrase []byte) (*Keyring, error) {
	envelope, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyring file: %w", err)
	}

	identity, err := age.NewScryptIdentity(string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("preparing keyring passphrase identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(envelope), identity)
	if err != nil {
		var incorrect *age.NoIdentityMatchError
		if errors.As(err, &incorrect) {
			return nil, fmt.Errorf("%w: %s", ErrWrongPassphrase, path)
		}
		return nil, fmt.Errorf("opening keyring envelope: %w", err)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decrypting keyring: %w", err)
	}

	var file keyringFile
	if err := codec.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("decoding keyring: %w", err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("keyring schema version %d is not supported (expected %d)", file.Version, fileVersion)
	}

	keyring := New()
	for group, secret := range file.Groups {
		if err := keyring.AddGroup(group, secret); err != nil {
			return nil, fmt.Errorf("loading keyring: %w", err)
		}
	}
	return keyring, nil
}
