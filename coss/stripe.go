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

// Package coss implements the disk-backed Cache variant: a single file
// per cache UUID, divided into fixed-size stripes of metadata, a hash
// array, a size array and a segment array, written cyclically. One
// stripe is kept active in memory at a time; a lookup that lands on a
// segment outside the active stripe relocates it into the active stripe
// so repeatedly referenced segments migrate toward the write head, the
// same way Squid's COSS cache does.
package coss

import (
	"encoding/binary"

	"github.com/launix-de/wanxcodec/xcodec"
)

// MetadataBytes and ArraySize are page-aligned, matching the original
// cache's on-disk layout.
const (
	MetadataBytes = 4096
	ArraySize     = 2048
)

// StripeBytes is the total on-disk size of one stripe: metadata, hash
// array, size array, then the segment array itself.
func StripeBytes() int64 {
	return int64(MetadataBytes) +
		int64(ArraySize)*8 + // hash array, one uint64 per slot
		int64(ArraySize)*4 + // size array, one uint32 per slot
		int64(ArraySize)*int64(xcodec.SegmentLen)
}

// IndexEntry locates a cached segment's home stripe and slot.
type IndexEntry struct {
	StripeNumber uint64
	Pos          uint32
	Length       uint32
}

// Stripe is one in-memory stripe: a header of serial/hash/size arrays
// plus a fixed array of segment-sized slots, each kept as its own array;
// Serialize and Deserialize copy them element by element.
type Stripe struct {
	number     uint64
	currentPos uint32

	serial    uint64
	hashArray [ArraySize]uint64
	sizeArray [ArraySize]uint32
	segments  [ArraySize][xcodec.SegmentLen]byte
}

// NewStripe returns a zeroed stripe, as if Reset(0, 0) had been called.
func NewStripe() *Stripe {
	s := &Stripe{}
	s.Reset(0, 0)
	return s
}

// Reset clears a stripe's contents and rebinds it to a fresh serial and
// stripe number, as happens every time the write head wraps onto it.
func (s *Stripe) Reset(serial, number uint64) {
	s.serial = serial
	s.number = number
	s.currentPos = 0
	s.hashArray = [ArraySize]uint64{}
	s.sizeArray = [ArraySize]uint32{}
	s.segments = [ArraySize][xcodec.SegmentLen]byte{}
}

// Full reports whether the stripe has no remaining slots.
func (s *Stripe) Full() bool {
	return s.currentPos >= ArraySize
}

// Number returns the stripe's position in the cyclic file.
func (s *Stripe) Number() uint64 { return s.number }

// Append stores seg in the next free slot and returns the index entry
// that should be recorded for hash. Callers must check Full first.
func (s *Stripe) Append(hash xcodec.Fingerprint, seg xcodec.Segment) IndexEntry {
	return s.appendRaw(hash, seg.Bytes())
}

func (s *Stripe) appendRaw(hash xcodec.Fingerprint, data []byte) IndexEntry {
	pos := s.currentPos
	copy(s.segments[pos][:], data)
	s.hashArray[pos] = uint64(hash)
	s.sizeArray[pos] = uint32(len(data))
	s.currentPos++
	return IndexEntry{StripeNumber: s.number, Pos: pos, Length: uint32(len(data))}
}

// Segment returns the raw bytes stored at pos, sized to the recorded
// length (the final bytes of a SegmentLen-sized slot may be padding).
func (s *Stripe) Segment(pos uint32) []byte {
	n := s.sizeArray[pos]
	return s.segments[pos][:n]
}

// Hash returns the fingerprint recorded at pos.
func (s *Stripe) Hash(pos uint32) xcodec.Fingerprint {
	return xcodec.Fingerprint(s.hashArray[pos])
}

// Serialize writes the stripe's on-disk representation into buf, which
// must be at least StripeBytes() long.
func (s *Stripe) Serialize(buf []byte) {
	binary.BigEndian.PutUint64(buf[0:8], s.serial)
	off := MetadataBytes
	for i := 0; i < ArraySize; i++ {
		binary.BigEndian.PutUint64(buf[off:off+8], s.hashArray[i])
		off += 8
	}
	for i := 0; i < ArraySize; i++ {
		binary.BigEndian.PutUint32(buf[off:off+4], s.sizeArray[i])
		off += 4
	}
	for i := 0; i < ArraySize; i++ {
		copy(buf[off:off+xcodec.SegmentLen], s.segments[i][:])
		off += xcodec.SegmentLen
	}
}

// Deserialize loads a stripe's in-memory state from its on-disk
// representation, as produced by Serialize. number is not stored on
// disk (it is implied by the stripe's offset in the file) and must be
// supplied by the caller.
func (s *Stripe) Deserialize(buf []byte, number uint64) {
	s.number = number
	s.serial = binary.BigEndian.Uint64(buf[0:8])
	off := MetadataBytes
	for i := 0; i < ArraySize; i++ {
		s.hashArray[i] = binary.BigEndian.Uint64(buf[off : off+8])
		off += 8
	}
	for i := 0; i < ArraySize; i++ {
		s.sizeArray[i] = binary.BigEndian.Uint32(buf[off : off+4])
		off += 4
	}
	for i := 0; i < ArraySize; i++ {
		copy(s.segments[i][:], buf[off:off+xcodec.SegmentLen])
		off += xcodec.SegmentLen
	}
	s.currentPos = 0
	for i := 0; i < ArraySize; i++ {
		if s.hashArray[i] == 0 {
			break
		}
		s.currentPos = uint32(i + 1)
	}
}

// Serial returns the stripe's auto-incrementing serial number, used at
// recovery time to find the most recently written stripe.
func (s *Stripe) Serial() uint64 { return s.serial }
