package cache

import (
	"testing"

	"github.com/launix-de/wanxcodec/xcodec"
)

func TestMemoryEnterLookup(t *testing.T) {
	c := NewMemory(NewUUID())
	seg := xcodec.NewSegment([]byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd"))
	const h xcodec.Fingerprint = 42

	if _, ok := c.Lookup(h); ok {
		t.Fatalf("lookup on empty cache succeeded")
	}

	c.Enter(h, seg)
	got, ok := c.Lookup(h)
	if !ok {
		t.Fatalf("lookup after Enter failed")
	}
	if !got.Equal(seg) {
		t.Fatalf("lookup returned different content")
	}
	if c.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Count())
	}
}

func TestMemoryEnterIdempotentForIdenticalContent(t *testing.T) {
	c := NewMemory(NewUUID())
	seg := xcodec.NewSegment([]byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd"))
	const h xcodec.Fingerprint = 7

	c.Enter(h, seg)
	c.Enter(h, seg)
	if c.Count() != 1 {
		t.Fatalf("expected re-entering identical content to be a no-op, got %d entries", c.Count())
	}
}

func TestMemoryEnterPanicsOnMismatch(t *testing.T) {
	c := NewMemory(NewUUID())
	a := xcodec.NewSegment([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"[:64]))
	b := xcodec.NewSegment([]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"[:64]))
	const h xcodec.Fingerprint = 99

	c.Enter(h, a)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Enter with mismatched content to panic")
		}
	}()
	c.Enter(h, b)
}

func TestNewUUIDIsUnique(t *testing.T) {
	seen := make(map[xcodec.UUID]struct{})
	for i := 0; i < 1000; i++ {
		u := NewUUID()
		if _, ok := seen[u]; ok {
			t.Fatalf("duplicate uuid generated: %s", u)
		}
		seen[u] = struct{}{}
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	local := NewMemory(NewUUID())
	peer := NewUUID()

	first := reg.GetOrCreate(peer, local)
	second := reg.GetOrCreate(peer, local)
	if first != second {
		t.Fatalf("GetOrCreate returned different caches for the same uuid")
	}

	list := reg.List()
	if len(list) != 1 || list[0] != peer {
		t.Fatalf("unexpected registry listing: %v", list)
	}
}
