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

package xcodec

// Cache is the capability set every cache variant (in-memory, COSS, and
// any future one) shares: enter a segment under a fingerprint, look one
// up, and mint a same-variant cache for a peer's UUID. The codec package
// only ever talks to caches through this interface; package cache and
// package coss provide the implementations.
type Cache interface {
	// Enter records seg under hash. Re-entering the same hash with
	// byte-identical content is a no-op; re-entering it with different
	// content is a caller bug the implementation may panic on (the
	// pipe-pair layer never calls Enter that way — it always checks
	// Lookup first and turns a mismatch into a Collision error itself).
	Enter(hash Fingerprint, seg Segment)

	// Lookup returns the segment stored under hash, or ok=false if the
	// cache holds nothing for it.
	Lookup(hash Fingerprint) (seg Segment, ok bool)

	// NewUUID constructs a new, empty cache of the same variant and
	// configuration, bound to uuid. Used when a pipe-pair's decoder
	// learns a peer's cache UUID and must open a matching local cache.
	NewUUID(uuid UUID) Cache
}
