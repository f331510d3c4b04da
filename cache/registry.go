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
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/launix-de/wanxcodec/xcodec"
)

type registryItem struct {
	uuid  xcodec.UUID
	cache xcodec.Cache
}

func lessRegistryItem(a, b registryItem) bool {
	return bytes.Compare(a.uuid[:], b.uuid[:]) < 0
}

// Registry is the process-wide UUID -> Cache table: one local cache per
// configured cache directory/budget, plus one decoder-side mirror cache
// per distinct peer UUID a pipe-pair has ever seen. It is safe for
// concurrent use; lookups and the ordered Ascend behind List (which the
// daemon's debug feed uses to count peer caches) both run under a read
// lock.
type Registry struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[registryItem]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tree: btree.NewG(8, lessRegistryItem)}
}

// Get returns the cache registered under uuid, if any.
func (r *Registry) Get(uuid xcodec.UUID) (xcodec.Cache, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.tree.Get(registryItem{uuid: uuid})
	if !ok {
		return nil, false
	}
	return item.cache, true
}

// Put registers cache under uuid, replacing whatever was there before.
func (r *Registry) Put(uuid xcodec.UUID, c xcodec.Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.ReplaceOrInsert(registryItem{uuid: uuid, cache: c})
}

// GetOrCreate returns the cache registered under uuid, minting one from
// local via local.NewUUID(uuid) and registering it if this is the first
// time uuid has been seen. This is how a decoder acquires the mirror
// cache for a peer's HELLO UUID.
func (r *Registry) GetOrCreate(uuid xcodec.UUID, local xcodec.Cache) xcodec.Cache {
	if c, ok := r.Get(uuid); ok {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.tree.Get(registryItem{uuid: uuid}); ok {
		return item.cache
	}
	c := local.NewUUID(uuid)
	r.tree.ReplaceOrInsert(registryItem{uuid: uuid, cache: c})
	return c
}

// List returns every registered UUID in ascending byte order.
func (r *Registry) List() []xcodec.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]xcodec.UUID, 0, r.tree.Len())
	r.tree.Ascend(func(item registryItem) bool {
		out = append(out, item.uuid)
		return true
	})
	return out
}
