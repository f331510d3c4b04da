/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package coss

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/launix-de/wanxcodec/wanlog"
	"github.com/launix-de/wanxcodec/xcodec"
)

// Layout of the compression envelope Cache wraps around a stripe's raw
// Serialize/Deserialize representation before it reaches the
// StripeStore: the serial stays at its usual offset 0, followed by the
// compressor id used for this stripe's payload and the payload's
// compressed length, all still within MetadataBytes ahead of where the
// hash/size/segment arrays begin.
const (
	compressorIDOffset = 8
	payloadLenOffset   = 9
	payloadHeaderEnd   = 17
)

// Stats tracks a cache's lifetime lookup behavior.
type Stats struct {
	Lookups uint64
	Hits    uint64
	Misses  uint64
}

// Cache is the disk-backed Cache variant. One stripe is held active in
// memory; Enter appends to it, rotating to the next stripe (and
// evicting that stripe's old index entries) when it fills. Lookup
// relocates a hit found outside the active stripe into it, so segments
// that keep getting referenced migrate toward the write head instead of
// aging out when the stripe holding them wraps.
type Cache struct {
	mu sync.Mutex

	uuid xcodec.UUID
	dir  string

	cacheSizeBytes  uint64
	localSizeBytes  uint64
	remoteSizeBytes uint64

	store      StripeStore
	index      *Index
	active     *Stripe
	stripeLen  int64
	lastStripe uint64
	serial     uint64

	compressor Compressor

	log logging
	stats Stats
}

// logging is the subset of logging.LeveledLogger this package uses;
// declared locally so tests can substitute a no-op without pulling in
// wanlog.
type logging interface {
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Open opens (or creates) a COSS cache file for uuid under dir, sized to
// hold cacheSizeBytes worth of stripes, and recovers its index by
// scanning every stripe's header. localSizeBytes and remoteSizeBytes are
// carried through to NewUUID for caches minted for a peer, matching the
// reference cache's three-way size split between a cache's own budget
// and what it hands out to local versus remote peers.
func Open(uuid xcodec.UUID, dir string, cacheSizeBytes, localSizeBytes, remoteSizeBytes uint64) (*Cache, error) {
	stripeLen := StripeBytes()
	capacity := (cacheSizeBytes + uint64(stripeLen) - 1) / uint64(stripeLen)
	if capacity == 0 {
		capacity = 1
	}
	path := filepath.Join(dir, uuid.String()+".coss")
	store, err := OpenFileStripeStore(path, capacity, stripeLen)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		uuid:            uuid,
		dir:             dir,
		cacheSizeBytes:  cacheSizeBytes,
		localSizeBytes:  localSizeBytes,
		remoteSizeBytes: remoteSizeBytes,
		store:           store,
		index:           NewIndex(),
		active:          NewStripe(),
		stripeLen:       stripeLen,
		lastStripe:      capacity - 1,
		compressor:      lz4Compressor{},
		log:             wanlog.Scoped("coss"),
	}
	if err := c.recover(); err != nil {
		store.Close()
		return nil, err
	}
	c.log.Infof("opened %s: %d stripes, %d segments indexed", path, capacity, c.index.Size())
	return c, nil
}

// recover replays every stripe's header to rebuild the index, and
// leaves the active stripe positioned at the most recently written one
// (the highest serial number seen), ready to resume appending where the
// cache left off.
func (c *Cache) recover() error {
	var maxSerial uint64
	var maxStripeNumber uint64
	found := false

	s := NewStripe()
	for n := uint64(0); n <= c.lastStripe; n++ {
		ok, err := c.readStripe(n, s)
		if err != nil {
			return fmt.Errorf("coss: reading stripe %d: %w", n, err)
		}
		if !ok {
			continue
		}
		if s.Serial() == 0 && s.currentPos == 0 {
			continue // never written
		}
		if !found || s.Serial() >= maxSerial {
			maxSerial = s.Serial()
			maxStripeNumber = n
			found = true
		}
		for pos := uint32(0); pos < s.currentPos; pos++ {
			hash := s.Hash(pos)
			if hash == 0 {
				continue
			}
			c.index.Insert(hash, IndexEntry{StripeNumber: n, Pos: pos, Length: s.sizeArray[pos]})
		}
	}

	if !found {
		c.active.Reset(0, 0)
		c.serial = 0
		return nil
	}

	ok, err := c.readStripe(maxStripeNumber, c.active)
	if err != nil {
		return err
	}
	if !ok {
		c.active.Reset(maxSerial, maxStripeNumber)
	}
	c.serial = maxSerial

	if c.active.Full() {
		return c.newActive(true)
	}
	return nil
}

// newActive writes out the current active stripe (if write is true),
// advances the write head to the next stripe in the cycle, evicts that
// stripe's old index entries, and resets it as the new active stripe.
func (c *Cache) newActive(write bool) error {
	if write {
		if err := c.writeStripe(c.active); err != nil {
			return fmt.Errorf("coss: writing stripe %d: %w", c.active.Number(), err)
		}
	}
	next := c.active.Number() + 1
	if next > c.lastStripe {
		next = 0
	}
	c.serial++
	c.active.Reset(c.serial, next)
	c.index.DeleteStripe(next)
	return nil
}

// writeStripe serializes s and persists it through c.store. The on-disk
// record is always exactly stripeLen bytes regardless of how well the
// payload compresses: the metadata region carries the serial, the
// compressor id used for this write, and the compressed payload's
// length, with the payload itself following at MetadataBytes and the
// remainder zero-padded. A payload that fails to compress smaller than
// the available space falls back to being stored under
// CompressorIdentity rather than corrupting the stripe.
func (c *Cache) writeStripe(s *Stripe) error {
	raw := make([]byte, c.stripeLen)
	s.Serialize(raw)

	id := c.compressor.ID()
	payload, err := c.compressor.Compress(raw[MetadataBytes:])
	if err != nil || len(payload) > int(c.stripeLen)-MetadataBytes {
		id = CompressorIdentity
		payload = raw[MetadataBytes:]
	}

	out := make([]byte, c.stripeLen)
	copy(out[0:8], raw[0:8])
	out[compressorIDOffset] = byte(id)
	binary.BigEndian.PutUint64(out[payloadLenOffset:payloadHeaderEnd], uint64(len(payload)))
	copy(out[MetadataBytes:], payload)

	return c.store.WriteStripe(s.Number(), out)
}

// readStripe loads and decompresses the stripe at number from c.store
// into dst, reporting ok=false if the store holds nothing for that stripe.
func (c *Cache) readStripe(number uint64, dst *Stripe) (bool, error) {
	raw, ok, err := c.store.ReadStripe(number)
	if err != nil || !ok {
		return ok, err
	}

	id := CompressorID(raw[compressorIDOffset])
	length := binary.BigEndian.Uint64(raw[payloadLenOffset:payloadHeaderEnd])
	if int(length) > len(raw)-MetadataBytes {
		return false, fmt.Errorf("coss: corrupt stripe %d: payload length %d exceeds capacity", number, length)
	}

	// A stripe that was truncated into existence but never written reads
	// back as all zeros: id and length are both zero, and the payload
	// region is already the zero-filled array state Deserialize expects,
	// with nothing to decompress.
	var payload []byte
	if length == 0 {
		payload = make([]byte, len(raw)-MetadataBytes)
	} else {
		comp, err := CompressorByID(id)
		if err != nil {
			return false, fmt.Errorf("coss: stripe %d: %w", number, err)
		}
		payload, err = comp.Decompress(raw[MetadataBytes : MetadataBytes+length])
		if err != nil {
			return false, fmt.Errorf("coss: decompressing stripe %d: %w", number, err)
		}
		if len(payload) != len(raw)-MetadataBytes {
			return false, fmt.Errorf("coss: corrupt stripe %d: decompressed payload has wrong size", number)
		}
	}

	full := make([]byte, c.stripeLen)
	copy(full[0:MetadataBytes], raw[0:MetadataBytes])
	copy(full[MetadataBytes:], payload)
	dst.Deserialize(full, number)
	return true, nil
}

// Enter records seg under hash, as xcodec.Cache requires. Disk errors
// are not expressible through that interface (Enter has no error
// return, matching every other Cache variant); a write failure is
// logged and otherwise treated as if the segment had been evicted
// immediately, which is safe: a future Lookup miss just costs a round
// trip to re-teach it.
func (c *Cache) Enter(hash xcodec.Fingerprint, seg xcodec.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.index.Get(hash); ok {
		if entry := c.loadEntryLocked(existing); entry != nil && !entry.Equal(seg) {
			panic("coss.Cache: Enter called with mismatched content for an existing hash")
		}
		return
	}

	if c.active.Full() {
		if err := c.newActive(true); err != nil {
			c.log.Infof("enter: %v", err)
			return
		}
	}
	entry := c.active.Append(hash, seg)
	c.index.Insert(hash, entry)
}

// Lookup returns the segment stored under hash. A hit outside the
// active stripe is relocated into it, migrating frequently referenced
// segments toward the write head before the stripe that originally held
// them wraps and is overwritten.
func (c *Cache) Lookup(hash xcodec.Fingerprint) (xcodec.Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Lookups++

	entry, ok := c.index.Get(hash)
	if !ok {
		c.stats.Misses++
		return xcodec.Segment{}, false
	}
	c.stats.Hits++

	if entry.StripeNumber == c.active.Number() {
		return xcodec.NewSegment(c.active.Segment(entry.Pos)), true
	}

	tmp := NewStripe()
	ok, err := c.readStripe(entry.StripeNumber, tmp)
	if err != nil || !ok {
		c.log.Infof("lookup: reading stripe %d: %v", entry.StripeNumber, err)
		return xcodec.Segment{}, false
	}
	seg := xcodec.NewSegment(tmp.Segment(entry.Pos))

	if c.active.Full() {
		if err := c.newActive(true); err != nil {
			c.log.Infof("lookup relocate: %v", err)
			return seg, true
		}
	}
	relocated := c.active.Append(hash, seg)
	c.index.Insert(hash, relocated)

	return seg, true
}

func (c *Cache) loadEntryLocked(entry IndexEntry) *xcodec.Segment {
	if entry.StripeNumber == c.active.Number() {
		seg := xcodec.NewSegment(c.active.Segment(entry.Pos))
		return &seg
	}
	tmp := NewStripe()
	ok, err := c.readStripe(entry.StripeNumber, tmp)
	if err != nil || !ok {
		return nil
	}
	seg := xcodec.NewSegment(tmp.Segment(entry.Pos))
	return &seg
}

// NewUUID opens (or creates) a sibling COSS cache under the same
// directory for a peer's UUID, sized from remoteSizeBytes the same way
// the reference cache hands a freshly learned peer a budget drawn from
// its own remote allotment rather than its local one.
func (c *Cache) NewUUID(uuid xcodec.UUID) xcodec.Cache {
	peer, err := Open(uuid, c.dir, c.remoteSizeBytes, c.localSizeBytes, c.remoteSizeBytes)
	if err != nil {
		panic(fmt.Sprintf("coss.Cache: opening peer cache: %v", err))
	}
	return peer
}

// UUID returns the cache's identity, as sent in a pipe-pair's HELLO.
func (c *Cache) UUID() xcodec.UUID { return c.uuid }

// Watch reports filesystem events on the cache's backing file, so a
// long-running daemon can notice it was tampered with out from under the
// running process. It only works for the default file-backed store;
// object-storage-backed caches (s3/ceph builds) have no local path to
// watch and return an error instead.
func (c *Cache) Watch() (*fsnotify.Watcher, error) {
	fileStore, ok := c.store.(*FileStripeStore)
	if !ok {
		return nil, fmt.Errorf("coss: Watch is only supported for a file-backed cache")
	}
	return fileStore.Watch()
}

// Stats returns a snapshot of the cache's lookup counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close flushes the active stripe and releases the backing store.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeStripe(c.active); err != nil {
		return err
	}
	return c.store.Close()
}
