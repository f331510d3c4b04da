package coss

import (
	"bytes"
	"testing"

	"github.com/launix-de/wanxcodec/cache"
	"github.com/launix-de/wanxcodec/xcodec"
)

func segOf(b byte) xcodec.Segment {
	return xcodec.NewSegment(bytes.Repeat([]byte{b}, xcodec.SegmentLen))
}

func TestCacheEnterLookup(t *testing.T) {
	dir := t.TempDir()
	uuid := cache.NewUUID()
	c, err := Open(uuid, dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	seg := segOf(0xAB)
	hash := xcodec.FingerprintOf(seg)
	c.Enter(hash, seg)

	got, ok := c.Lookup(hash)
	if !ok {
		t.Fatalf("expected lookup to find the entered segment")
	}
	if !got.Equal(seg) {
		t.Fatalf("segment content mismatch")
	}

	if _, ok := c.Lookup(hash + 1); ok {
		t.Fatalf("expected lookup miss for an unentered hash")
	}

	st := c.Stats()
	if st.Lookups != 2 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestCacheEnterIdempotentForIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(cache.NewUUID(), dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	seg := segOf(0x11)
	hash := xcodec.FingerprintOf(seg)
	c.Enter(hash, seg)
	c.Enter(hash, seg) // should not panic
}

func TestCacheEnterPanicsOnMismatch(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(cache.NewUUID(), dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	a, b := segOf(0x01), segOf(0x02)
	hash := xcodec.FingerprintOf(a)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic on mismatched content")
		}
	}()
	c.Enter(hash, a)
	c.Enter(hash, b)
}

func TestCacheRotatesStripesAndEvictsOldEntries(t *testing.T) {
	dir := t.TempDir()
	// One stripe's worth of cache capacity, so the second stripe's
	// worth of entries forces a wrap back onto the first stripe.
	c, err := Open(cache.NewUUID(), dir, uint64(StripeBytes()), uint64(StripeBytes()), uint64(StripeBytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	first := segOf(0x01)
	firstHash := xcodec.FingerprintOf(first)
	c.Enter(firstHash, first)

	for i := 0; i < ArraySize; i++ {
		seg := segOf(byte(i))
		c.Enter(xcodec.Fingerprint(i+1000), seg)
	}

	if _, ok := c.Lookup(firstHash); ok {
		t.Fatalf("expected the first stripe's entry to be evicted once the cycle wrapped")
	}
}

func TestCacheRecoversIndexFromExistingFile(t *testing.T) {
	dir := t.TempDir()
	uuid := cache.NewUUID()

	c1, err := Open(uuid, dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seg := segOf(0x77)
	hash := xcodec.FingerprintOf(seg)
	c1.Enter(hash, seg)
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(uuid, dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	got, ok := c2.Lookup(hash)
	if !ok {
		t.Fatalf("expected recovered cache to find the previously entered segment")
	}
	if !got.Equal(seg) {
		t.Fatalf("recovered segment content mismatch")
	}
}

func TestCacheNewUUIDOpensSiblingCache(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(cache.NewUUID(), dir, 1<<20, 1<<20, 1<<20)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	peer := c.NewUUID(cache.NewUUID())
	defer peer.(*Cache).Close()

	seg := segOf(0x99)
	hash := xcodec.FingerprintOf(seg)
	peer.Enter(hash, seg)
	if _, ok := peer.Lookup(hash); !ok {
		t.Fatalf("expected peer cache to find its own entry")
	}
	if _, ok := c.Lookup(hash); ok {
		t.Fatalf("expected peer cache to be independent of the parent cache")
	}
}
