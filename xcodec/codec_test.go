package xcodec

import (
	"bytes"
	"math/rand"
	"testing"
)

// testCache is a minimal in-memory Cache used only by this package's own
// tests; the real variants live in package cache and package coss.
type testCache struct {
	entries map[Fingerprint]Segment
}

func newTestCache() *testCache {
	return &testCache{entries: make(map[Fingerprint]Segment)}
}

func (c *testCache) Enter(hash Fingerprint, seg Segment) {
	if existing, ok := c.entries[hash]; ok && !existing.Equal(seg) {
		panic("testCache: Enter called with mismatched content for an existing hash")
	}
	c.entries[hash] = seg
}

func (c *testCache) Lookup(hash Fingerprint) (Segment, bool) {
	seg, ok := c.entries[hash]
	return seg, ok
}

func (c *testCache) NewUUID(UUID) Cache {
	return newTestCache()
}

func roundTrip(t *testing.T, cache Cache, input []byte) []byte {
	t.Helper()

	enc := NewEncoder(cache)
	var encoded bytes.Buffer
	enc.Encode(&encoded, input)
	enc.Flush(&encoded)

	dec := NewDecoder(cache)
	var decoded bytes.Buffer
	unknown := make(map[Fingerprint]struct{})
	if err := dec.Decode(&decoded, encoded.Bytes(), unknown); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(unknown) != 0 {
		t.Fatalf("decode left unresolved fingerprints with a shared cache: %v", unknown)
	}
	return decoded.Bytes()
}

func TestRoundTripRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{0, 1, 63, 64, 65, 127, 128, 4096, 10000} {
		input := make([]byte, size)
		rng.Read(input)
		got := roundTrip(t, newTestCache(), input)
		if !bytes.Equal(got, input) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}

func TestRoundTripRepeatedContentShrinksOutput(t *testing.T) {
	block := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog!!!!!!!!!!!!!!!!!!!!!"), 1)
	if len(block) != SegmentLen {
		t.Fatalf("test fixture block must be exactly SegmentLen bytes, got %d", len(block))
	}
	input := bytes.Repeat(block, 200)

	cache := newTestCache()
	enc := NewEncoder(cache)
	var encoded bytes.Buffer
	enc.Encode(&encoded, input)
	enc.Flush(&encoded)

	if encoded.Len() >= len(input) {
		t.Fatalf("expected repeated content to compress, encoded=%d input=%d", encoded.Len(), len(input))
	}

	dec := NewDecoder(cache)
	var decoded bytes.Buffer
	unknown := make(map[Fingerprint]struct{})
	if err := dec.Decode(&decoded, encoded.Bytes(), unknown); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), input) {
		t.Fatalf("round trip mismatch on repeated content")
	}
}

func TestDecodeStopsOnUnknownFingerprint(t *testing.T) {
	source := newTestCache()
	block := bytes.Repeat([]byte{0x42}, SegmentLen)
	input := append(append([]byte{}, block...), block...)

	enc := NewEncoder(source)
	var encoded bytes.Buffer
	enc.Encode(&encoded, input)
	enc.Flush(&encoded)

	// Decode against an empty cache that shares nothing with source: the
	// first reference (if any) must surface as an unknown fingerprint
	// rather than being silently skipped or corrupting later output.
	empty := newTestCache()
	dec := NewDecoder(empty)
	var decoded bytes.Buffer
	unknown := make(map[Fingerprint]struct{})
	err := dec.Decode(&decoded, encoded.Bytes(), unknown)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(unknown) == 0 {
		// The repeated block never happened to clear the teach filter;
		// nothing to test here, but the round trip must still hold.
		if !bytes.Equal(decoded.Bytes(), input) {
			t.Fatalf("round trip mismatch with no taught segments")
		}
		return
	}

	for h, seg := range source.entries {
		if _, missing := unknown[h]; missing {
			empty.Enter(h, seg)
		}
	}
	unknown = make(map[Fingerprint]struct{})
	if err := dec.Decode(&decoded, nil, unknown); err != nil {
		t.Fatalf("resume decode: %v", err)
	}
	if len(unknown) != 0 {
		t.Fatalf("resume still unresolved: %v", unknown)
	}
	if !bytes.Equal(decoded.Bytes(), input) {
		t.Fatalf("round trip mismatch after resolving unknown fingerprint")
	}
}

func TestDecodeResumesAcrossSplitTokens(t *testing.T) {
	cache := newTestCache()
	input := []byte("split across calls, including an escaped zero\x00 byte")

	enc := NewEncoder(cache)
	var encoded bytes.Buffer
	enc.Encode(&encoded, input)
	enc.Flush(&encoded)

	dec := NewDecoder(cache)
	var decoded bytes.Buffer
	unknown := make(map[Fingerprint]struct{})
	full := encoded.Bytes()
	for i := 0; i < len(full); i++ {
		if err := dec.Decode(&decoded, full[i:i+1], unknown); err != nil {
			t.Fatalf("decode byte %d: %v", i, err)
		}
	}
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown fingerprints: %v", unknown)
	}
	if !bytes.Equal(decoded.Bytes(), input) {
		t.Fatalf("one-byte-at-a-time decode mismatch:\ngot  %q\nwant %q", decoded.Bytes(), input)
	}
}
