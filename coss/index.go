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
	"sync"

	"github.com/launix-de/wanxcodec/xcodec"
)

// Index is the in-memory map from fingerprint to on-disk location,
// rebuilt at startup by scanning every stripe's header. It also tracks
// which fingerprints live in each stripe, so that when the write head
// wraps onto a stripe and overwrites it, entries still pointing at the
// old contents can be dropped rather than serving stale data.
type Index struct {
	mu       sync.RWMutex
	byHash   map[xcodec.Fingerprint]IndexEntry
	byStripe map[uint64]map[xcodec.Fingerprint]struct{}
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		byHash:   make(map[xcodec.Fingerprint]IndexEntry),
		byStripe: make(map[uint64]map[xcodec.Fingerprint]struct{}),
	}
}

// Insert records (or replaces) the location of hash.
func (ix *Index) Insert(hash xcodec.Fingerprint, entry IndexEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.insertLocked(hash, entry)
}

func (ix *Index) insertLocked(hash xcodec.Fingerprint, entry IndexEntry) {
	if old, ok := ix.byHash[hash]; ok {
		if set := ix.byStripe[old.StripeNumber]; set != nil {
			delete(set, hash)
		}
	}
	ix.byHash[hash] = entry
	set := ix.byStripe[entry.StripeNumber]
	if set == nil {
		set = make(map[xcodec.Fingerprint]struct{})
		ix.byStripe[entry.StripeNumber] = set
	}
	set[hash] = struct{}{}
}

// Get returns the recorded location of hash, if any.
func (ix *Index) Get(hash xcodec.Fingerprint) (IndexEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.byHash[hash]
	return e, ok
}

// Size returns the number of fingerprints currently indexed.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byHash)
}

// DeleteStripe drops every entry still pointing at stripeNumber. A
// fingerprint whose entry has since been relocated to a different
// stripe (via Insert, from a lookup-triggered relocation) is left
// alone: it no longer belongs to the stripe being overwritten.
func (ix *Index) DeleteStripe(stripeNumber uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set := ix.byStripe[stripeNumber]
	for hash := range set {
		if entry, ok := ix.byHash[hash]; ok && entry.StripeNumber == stripeNumber {
			delete(ix.byHash, hash)
		}
	}
	delete(ix.byStripe, stripeNumber)
}
