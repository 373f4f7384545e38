// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// identifiers in different contexts, preventing cross-domain
// collisions.
type domainKey [32]byte

// Domain separation keys. These are fixed constants; changing them
// changes every derived identifier. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes. Readable
// ASCII keeps the keys inspectable in hex dumps and debuggers
// without sacrificing any cryptographic property (BLAKE3 keyed mode
// treats the key as an opaque 32-byte value).
var (
	peerDomainKey = domainKey{
		'x', '0', 'x', '.', 'p', 'e', 'e', 'r', '.', 'i', 'd', 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	taskDomainKey = domainKey{
		'x', '0', 'x', '.', 't', 'a', 's', 'k', '.', 'i', 'd', 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	listDomainKey = domainKey{
		'x', '0', 'x', '.', 'l', 'i', 's', 't', '.', 'i', 'd', 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// DerivePeerID computes a peer ID from identity key material
// (typically a public signing key). The same key material always
// derives the same peer ID.
func DerivePeerID(publicKey []byte) PeerID {
	return PeerID(keyedHash(peerDomainKey, publicKey))
}

// DeriveTaskID computes a task ID from the task's creation event:
// the creating peer, the creation wall-clock time in milliseconds,
// and the initial title. The derivation is deterministic, so a
// replica that re-derives an ID for the same creation event gets
// the same identifier.
func DeriveTaskID(creator PeerID, createdAtMS int64, title string) TaskID {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAtMS))
	return TaskID(keyedHash(taskDomainKey, creator[:], ts[:], []byte(title)))
}

// DeriveListID computes a list ID from the list's creation event:
// the creating peer, the creation wall-clock time in milliseconds,
// and the list name.
func DeriveListID(creator PeerID, createdAtMS int64, name string) ListID {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAtMS))
	return ListID(keyedHash(listDomainKey, creator[:], ts[:], []byte(name)))
}

// keyedHash computes the BLAKE3 keyed hash of the concatenation of
// parts under the given domain key.
func keyedHash(key domainKey, parts ...[]byte) [32]byte {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("ref: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for _, part := range parts {
		hasher.Write(part)
	}
	var digest [32]byte
	hasher.Sum(digest[:0])
	return digest
}
