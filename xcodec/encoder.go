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

import (
	"bytes"
	"encoding/binary"
)

// Encoder turns a byte stream into the codec's token stream: literal
// bytes pass straight through (with a zero byte escaped to avoid
// colliding with the reference marker), and any run of SegmentLen bytes
// already known to the cache is replaced by an 8-byte fingerprint.
//
// The token grammar is:
//
//	0x00 0x00          -> literal byte 0x00
//	0x00 0x01 <8 bytes> -> reference to the fingerprint (big-endian)
//	any other byte      -> that literal byte
//
// Encoder carries state across calls: the sliding window and its rolling
// hash. Calling Flush emits whatever is still buffered in an incomplete
// final window.
type Encoder struct {
	cache Cache
	seg   *segmenter
}

// NewEncoder returns an Encoder that teaches and references segments
// through cache.
func NewEncoder(cache Cache) *Encoder {
	return &Encoder{cache: cache, seg: newSegmenter(cache)}
}

// Encode appends the encoded form of input to output.
func (e *Encoder) Encode(output *bytes.Buffer, input []byte) {
	for _, b := range input {
		e.seg.feed(b, func(r feedResult) {
			switch r.Event {
			case feedLiteral:
				writeLiteralByte(output, r.Byte)
			case feedReference:
				writeReferenceToken(output, r.Hash)
			case feedTaught:
				writeLiteralBytes(output, r.Segment.Bytes())
			}
		})
	}
}

// Flush emits any bytes still buffered in an incomplete window. Call it
// once, at end of stream; Encode may still be called afterward to start
// a fresh window (the segmenter resets cleanly).
func (e *Encoder) Flush(output *bytes.Buffer) {
	writeLiteralBytes(output, e.seg.flush())
}

func writeLiteralByte(out *bytes.Buffer, b byte) {
	if b == 0x00 {
		out.WriteByte(0x00)
		out.WriteByte(0x00)
		return
	}
	out.WriteByte(b)
}

func writeLiteralBytes(out *bytes.Buffer, bs []byte) {
	for _, b := range bs {
		writeLiteralByte(out, b)
	}
}

func writeReferenceToken(out *bytes.Buffer, h Fingerprint) {
	out.WriteByte(0x00)
	out.WriteByte(0x01)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(h))
	out.Write(buf[:])
}
