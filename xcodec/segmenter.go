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

import "github.com/launix-de/wanxcodec/xcodechash"

// defaultTeachMask gates how many distinct, not-yet-cached windows get
// taught: a window qualifies when its hash's low bits are all zero under
// this mask, i.e. roughly 1 in (defaultTeachMask+1) windows. This is the
// "low-bit filter" §4.2 describes as an example heuristic; the window is
// always SegmentLen bytes (fixed-size caching unit, not variable-length
// content-defined chunking), so the mask only controls dictionary
// density, not segment boundaries.
const defaultTeachMask = 0x1F

type feedEvent int

const (
	feedNone feedEvent = iota
	// feedLiteral: a byte left the window without being absorbed into a
	// reference or a learn; Byte holds it.
	feedLiteral
	// feedReference: the window byte-equals a cache entry; Hash holds
	// the fingerprint to reference instead of the window's bytes.
	feedReference
	// feedTaught: the window was newly entered into the cache; Hash and
	// Segment hold what was entered (the caller must still emit the
	// window's bytes literally — this is the first time they occur).
	feedTaught
)

type feedResult struct {
	Event   feedEvent
	Byte    byte
	Hash    Fingerprint
	Segment Segment
}

// segmenter implements the shared sliding-window/rolling-hash state
// machine of §4.2: accumulate SegmentLen bytes, test the window against
// the cache, and either reference it, teach it, or slide one byte and
// try again. Both Encoder (driven by input bytes, emitting tokens) and
// Decoder (driven by reconstructed plaintext bytes, mirroring the
// encoder's dictionary so that later references resolve without an ASK)
// share this type; a Decoder's segmenter runs purely for its side effect
// on the cache; Encoder uses the returned events to build its output.
type segmenter struct {
	cache     Cache
	win       []byte
	hash      xcodechash.Hash
	hashValid bool
	teachMask uint64
}

func newSegmenter(cache Cache) *segmenter {
	return &segmenter{cache: cache, win: make([]byte, 0, SegmentLen), teachMask: defaultTeachMask}
}

// feed processes one byte, invoking emit 0, 1, or 2 times: once for a
// byte sliding out of the window unclassified (if the window was already
// full), and once more for the outcome of testing the (possibly new)
// full window.
func (s *segmenter) feed(b byte, emit func(feedResult)) {
	if len(s.win) == SegmentLen {
		old := s.win[0]
		copy(s.win, s.win[1:])
		s.win[SegmentLen-1] = b
		if s.hashValid {
			s.hash.Roll(old, b)
		}
		emit(feedResult{Event: feedLiteral, Byte: old})
	} else {
		s.win = append(s.win, b)
	}

	if len(s.win) != SegmentLen {
		return
	}

	if !s.hashValid {
		s.hash.Reset(s.win)
		s.hashValid = true
	}

	h := Fingerprint(s.hash.Sum())
	if existing, ok := s.cache.Lookup(h); ok {
		if existing.Equal(NewSegment(s.win)) {
			emit(feedResult{Event: feedReference, Hash: h})
			s.reset()
		}
		// hash collision with unrelated content already in the cache:
		// leave the window sliding, byte equality saved us from a false
		// reference.
		return
	}

	if uint64(h)&s.teachMask == 0 {
		seg := NewSegment(s.win)
		s.cache.Enter(h, seg)
		emit(feedResult{Event: feedTaught, Hash: h, Segment: seg})
		s.reset()
	}
}

func (s *segmenter) reset() {
	s.win = s.win[:0]
	s.hashValid = false
}

// flush returns the bytes still buffered in an incomplete window (the
// final partial segment of a stream, or a full window that never
// resolved) and clears the segmenter's state.
func (s *segmenter) flush() []byte {
	out := make([]byte, len(s.win))
	copy(out, s.win)
	s.reset()
	return out
}

func noopFeed(feedResult) {}
