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

// Package xcodec implements the redundancy-elimination codec: the
// deterministic segment/fingerprint data model (this file), the encoder
// and the decoder. It is stateless with respect to any particular
// connection; all per-stream state lives in Encoder/Decoder values.
package xcodec

// SegmentLen is the fixed size, in bytes, of a cacheable unit.
const SegmentLen = 64

// UUIDSize is the wire length of a cache UUID.
const UUIDSize = 16

// Fingerprint is the 64-bit rolling-hash output identifying a Segment.
// Two Fingerprints being equal never implies the underlying bytes are
// equal; callers must verify with Segment.Equal before trusting a match.
type Fingerprint uint64

// Segment is an immutable fixed-size (or, for the final segment of a
// stream, shorter) content unit. Go's garbage collector gives it cheap
// shared ownership, so unlike the reference implementation's
// reference-counted BufferSegment, a Segment needs no explicit ref/unref:
// any number of callers may hold the same backing array and it is freed
// once unreachable.
type Segment struct {
	bytes []byte
}

// NewSegment copies b into a new Segment. b must be 1..SegmentLen bytes;
// only the final segment of a stream may be shorter than SegmentLen.
func NewSegment(b []byte) Segment {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Segment{bytes: cp}
}

// Bytes returns the segment's content. Callers must not mutate the
// returned slice: Segments are shared-immutable.
func (s Segment) Bytes() []byte { return s.bytes }

// Len returns the segment's length, SegmentLen for every segment but
// possibly the last one written for an input stream.
func (s Segment) Len() int { return len(s.bytes) }

// Equal reports whether two segments hold byte-identical content. This is
// the check that turns a possibly-colliding Fingerprint match into a
// trusted reference.
func (s Segment) Equal(o Segment) bool {
	if len(s.bytes) != len(o.bytes) {
		return false
	}
	for i := range s.bytes {
		if s.bytes[i] != o.bytes[i] {
			return false
		}
	}
	return true
}
