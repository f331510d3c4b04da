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

package cache

import (
	"github.com/launix-de/NonLockingReadMap"

	"github.com/launix-de/wanxcodec/xcodec"
)

// entry is the NonLockingReadMap element for a taught segment. Lookups on
// a Memory cache vastly outnumber inserts (every byte the codec touches
// does a lookup, only taught segments get entered), which is exactly the
// read/write ratio NonLockingReadMap is built for.
type entry struct {
	hash xcodec.Fingerprint
	seg  xcodec.Segment
}

func (e entry) GetKey() xcodec.Fingerprint { return e.hash }

func (e entry) ComputeSize() uint {
	return 16 /* struct + fingerprint */ + uint(e.seg.Len())
}

// Memory is the in-process, non-persistent Cache variant: a dictionary of
// taught segments that disappears when the process exits. It has no size
// bound and never evicts an entry.
type Memory struct {
	uuid xcodec.UUID
	m    NonLockingReadMap.NonLockingReadMap[entry, xcodec.Fingerprint]
}

// NewMemory returns an empty Memory cache bound to uuid.
func NewMemory(uuid xcodec.UUID) *Memory {
	return &Memory{uuid: uuid, m: NonLockingReadMap.New[entry, xcodec.Fingerprint]()}
}

func (c *Memory) UUID() xcodec.UUID { return c.uuid }

func (c *Memory) Enter(hash xcodec.Fingerprint, seg xcodec.Segment) {
	if existing := c.m.Get(hash); existing != nil && !existing.seg.Equal(seg) {
		panic("cache.Memory: Enter called with mismatched content for an existing hash")
	}
	c.m.Set(&entry{hash: hash, seg: seg})
}

func (c *Memory) Lookup(hash xcodec.Fingerprint) (xcodec.Segment, bool) {
	e := c.m.Get(hash)
	if e == nil {
		return xcodec.Segment{}, false
	}
	return e.seg, true
}

func (c *Memory) NewUUID(uuid xcodec.UUID) xcodec.Cache {
	return NewMemory(uuid)
}

// Size reports the cache's approximate in-memory footprint in bytes.
func (c *Memory) Size() uint {
	return c.m.ComputeSize()
}

// Count returns the number of segments currently held.
func (c *Memory) Count() int {
	return len(c.m.GetAll())
}
