// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// KeySize is the size in bytes of every per-epoch symmetric key.
const KeySize = chacha20poly1305.KeySize

// headerSize is the cleartext prefix of the wire form: the 32-byte
// group ID followed by the 8-byte big-endian epoch.
const headerSize = 32 + 8

// minimumWireSize is the smallest well-formed payload: header, nonce,
// and the Poly1305 tag of an empty plaintext.
const minimumWireSize = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// Sentinel errors for the failure kinds of Open. Callers match with
// errors.Is; the wrapped detail says which values disagreed.
var (
	// ErrGroupMismatch means the payload names a different group
	// than the caller expected.
	ErrGroupMismatch = errors.New("sealed delta belongs to a different group")

	// ErrEpochMismatch means the payload names a different key epoch
	// than the caller expected.
	ErrEpochMismatch = errors.New("sealed delta belongs to a different epoch")

	// ErrAuthenticationFailed means the AEAD tag check failed: wrong
	// key, or any corruption of the ciphertext, nonce, or header.
	ErrAuthenticationFailed = errors.New("sealed delta failed authentication")

	// ErrKeyUnavailable means the key provider has no key for the
	// (group, epoch) pair. Providers return it directly; Open also
	// wraps whatever resolution error the provider reports.
	ErrKeyUnavailable = errors.New("no key available for group epoch")
)

// KeyProvider resolves the symmetric key for a (group, epoch) pair.
// It is the engine's boundary to the external group key-schedule;
// resolution may suspend (a keyring unlock, a remote fetch), so it
// takes a context and is never called under a list lock.
//
// Implementations return a key of exactly KeySize bytes, or an error
// matching ErrKeyUnavailable when the pair cannot be resolved.
type KeyProvider interface {
	ResolveKey(ctx context.Context, group ref.GroupID, epoch uint64) ([]byte, error)
}

// StaticKeys is a KeyProvider backed by a fixed in-memory table.
// Used by tests and by embedders that manage key material
// themselves.
type StaticKeys map[ref.GroupID]map[uint64][]byte

// Add registers a key for the (group, epoch) pair.
func (s StaticKeys) Add(group ref.GroupID, epoch uint64, key []byte) {
	epochs := s[group]
	if epochs == nil {
		epochs = make(map[uint64][]byte)
		s[group] = epochs
	}
	epochs[epoch] = key
}

// ResolveKey implements KeyProvider.
func (s StaticKeys) ResolveKey(_ context.Context, group ref.GroupID, epoch uint64) ([]byte, error) {
	key, ok := s[group][epoch]
	if !ok {
		return nil, fmt.Errorf("%w: group %s epoch %d", ErrKeyUnavailable, group, epoch)
	}
	return key, nil
}

// EncryptedDelta is a sealed delta: the cleartext (group, epoch)
// routing header plus the AEAD ciphertext of the encoded delta.
type EncryptedDelta struct {
	Group ref.GroupID
	Epoch uint64
	// Ciphertext is the random 24-byte XChaCha20-Poly1305 nonce
	// followed by the sealed bytes, which end in the 16-byte
	// Poly1305 tag.
	Ciphertext []byte
}

// Seal encodes the delta and seals it under the given per-epoch key.
// The nonce is random per call: one epoch seals many deltas, so a
// deterministic nonce would repeat under the same key.
func Seal(delta *tasklist.Delta, group ref.GroupID, epoch uint64, key []byte) (*EncryptedDelta, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	plaintext, err := delta.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding delta for sealing: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	ciphertext := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	copy(ciphertext, nonce[:])
	ciphertext = aead.Seal(ciphertext, nonce[:], plaintext, buildAAD(group, epoch))

	return &EncryptedDelta{Group: group, Epoch: epoch, Ciphertext: ciphertext}, nil
}

// Open authenticates and decrypts a sealed delta. The caller states
// which group and epoch it expects; mismatches fail before any key
// is resolved, so a payload for the wrong group never drives a key
// lookup. The key is fetched from the provider and the tag verified;
// any corruption anywhere in the payload fails authentication and no
// plaintext is returned.
func Open(ctx context.Context, encrypted *EncryptedDelta, wantGroup ref.GroupID, wantEpoch uint64, provider KeyProvider) (*tasklist.Delta, error) {
	if encrypted.Group != wantGroup {
		return nil, fmt.Errorf("%w: payload %s, expected %s", ErrGroupMismatch, encrypted.Group, wantGroup)
	}
	if encrypted.Epoch != wantEpoch {
		return nil, fmt.Errorf("%w: payload epoch %d, expected %d", ErrEpochMismatch, encrypted.Epoch, wantEpoch)
	}
	if len(encrypted.Ciphertext) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, minimum is %d (nonce + tag)",
			ErrAuthenticationFailed, len(encrypted.Ciphertext), chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead)
	}

	key, err := provider.ResolveKey(ctx, encrypted.Group, encrypted.Epoch)
	if err != nil {
		if errors.Is(err, ErrKeyUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := encrypted.Ciphertext[:chacha20poly1305.NonceSizeX]
	sealedBytes := encrypted.Ciphertext[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, sealedBytes, buildAAD(encrypted.Group, encrypted.Epoch))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	delta, err := tasklist.DecodeDelta(plaintext)
	if err != nil {
		return nil, fmt.Errorf("decoding authenticated delta: %w", err)
	}
	return delta, nil
}

// Encode renders the wire form:
//
//	[Group: 32 bytes] [Epoch: 8 bytes big-endian] [Ciphertext]
//
// The header duplicates the struct fields so a relay can route the
// payload without decrypting it; the AAD binding makes the
// duplication tamper-evident.
func (e *EncryptedDelta) Encode() []byte {
	wire := make([]byte, headerSize+len(e.Ciphertext))
	copy(wire, e.Group[:])
	binary.BigEndian.PutUint64(wire[32:], e.Epoch)
	copy(wire[headerSize:], e.Ciphertext)
	return wire
}

// Decode parses the wire form produced by Encode. Only framing is
// checked here; authenticity is Open's job.
func Decode(wire []byte) (*EncryptedDelta, error) {
	if len(wire) < minimumWireSize {
		return nil, fmt.Errorf("sealed payload is %d bytes, minimum is %d (header + nonce + tag)",
			len(wire), minimumWireSize)
	}
	group, err := ref.GroupIDFromBytes(wire[:32])
	if err != nil {
		return nil, fmt.Errorf("sealed payload group: %w", err)
	}
	encrypted := &EncryptedDelta{
		Group:      group,
		Epoch:      binary.BigEndian.Uint64(wire[32:headerSize]),
		Ciphertext: append([]byte(nil), wire[headerSize:]...),
	}
	return encrypted, nil
}

// buildAAD constructs the associated data binding the ciphertext to
// its routing header: the group ID followed by the big-endian epoch.
func buildAAD(group ref.GroupID, epoch uint64) []byte {
	aad := make([]byte, headerSize)
	copy(aad, group[:])
	binary.BigEndian.PutUint64(aad[32:], epoch)
	return aad
}
