// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package crdt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// Dot identifies a single mutation event: the peer that performed it
// and that peer's own sequence number. Sequence numbers start at 1;
// a zero Seq marks the zero Dot, which never identifies a real
// event.
type Dot struct {
	Peer ref.PeerID `cbor:"peer"`
	Seq  uint64     `cbor:"seq"`
}

// IsZero reports whether the Dot is the zero value.
func (d Dot) IsZero() bool { return d.Seq == 0 && d.Peer.IsZero() }

// Compare imposes a total order on dots: peer IDs bytewise, then
// sequence numbers. Any total order would do for tombstone
// determinism, but every replica must use the same one.
func (d Dot) Compare(other Dot) int {
	if c := d.Peer.Compare(other.Peer); c != 0 {
		return c
	}
	switch {
	case d.Seq < other.Seq:
		return -1
	case d.Seq > other.Seq:
		return 1
	}
	return 0
}

// String returns the canonical text form, "peerhex:seq".
func (d Dot) String() string {
	return d.Peer.String() + ":" + strconv.FormatUint(d.Seq, 10)
}

// MarshalText implements encoding.TextMarshaler. Dots serialize as
// "peerhex:seq" so they can key CBOR maps as readable text, the same
// way bare identifiers do.
func (d Dot) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with strict
// validation of both halves.
func (d *Dot) UnmarshalText(data []byte) error {
	raw := string(data)
	separator := strings.IndexByte(raw, ':')
	if separator < 0 {
		return fmt.Errorf("%w: dot %q has no ':' separator", ref.ErrInvalidIdentifier, raw)
	}
	peer, err := ref.ParsePeerID(raw[:separator])
	if err != nil {
		return fmt.Errorf("dot peer: %w", err)
	}
	seq, err := strconv.ParseUint(raw[separator+1:], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: dot %q has malformed sequence number: %v", ref.ErrInvalidIdentifier, raw, err)
	}
	d.Peer = peer
	d.Seq = seq
	return nil
}
