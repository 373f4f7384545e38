// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/saorsa-labs/x0x-go/lib/ref"
)

// sampleRecord is a representative internal record using cbor struct
// tags (the convention for purely-internal types).
type sampleRecord struct {
	Kind  string `cbor:"kind"`
	Actor string `cbor:"actor,omitempty"`
	Count int    `cbor:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Kind:  "checkpoint",
		Actor: "replica-a",
		Count: 42,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Kind: "delta", Actor: "replica-b", Count: 7}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same value marshaled to different bytes")
	}
}

func TestIdentifierMapKeys(t *testing.T) {
	// Version vectors are maps keyed by peer ID. The keys must
	// round-trip through their canonical hex text form, and the
	// encoding must be deterministic regardless of Go map iteration
	// order.
	peerA := ref.MustParsePeerID(strings.Repeat("aa", 32))
	peerB := ref.MustParsePeerID(strings.Repeat("bb", 32))
	vector := map[ref.PeerID]uint64{peerA: 3, peerB: 9}

	data, err := Marshal(vector)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Hex-text keys should be visible in diagnostic notation.
	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diag, strings.Repeat("aa", 32)) {
		t.Errorf("diagnostic output missing hex key: %s", diag)
	}

	var decoded map[ref.PeerID]uint64
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 2 || decoded[peerA] != 3 || decoded[peerB] != 9 {
		t.Errorf("roundtrip mismatch: got %v", decoded)
	}

	second, err := Marshal(map[ref.PeerID]uint64{peerB: 9, peerA: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(data, second) {
		t.Error("map key order changed the encoding")
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	// Decoding must tolerate fields added by newer versions.
	extended := struct {
		Kind   string `cbor:"kind"`
		Count  int    `cbor:"count"`
		Future string `cbor:"future"`
	}{Kind: "delta", Count: 1, Future: "ignored"}

	data, err := Marshal(extended)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if decoded.Kind != "delta" || decoded.Count != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)

	records := []sampleRecord{
		{Kind: "delta", Count: 1},
		{Kind: "delta", Count: 2},
		{Kind: "checkpoint", Count: 3},
	}
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var decoded []sampleRecord
	for {
		var record sampleRecord
		err := decoder.Decode(&record)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		decoded = append(decoded, record)
	}

	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}
	for i := range records {
		if decoded[i] != records[i] {
			t.Errorf("record %d mismatch: got %+v, want %+v", i, decoded[i], records[i])
		}
	}
}
