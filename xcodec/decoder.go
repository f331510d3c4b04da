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

	"github.com/launix-de/wanxcodec/wanerr"
)

// Decoder reverses Encoder's token stream. It carries a buffer of
// partially received encoded bytes across calls, so a token split across
// two Decode calls (or a reference whose fingerprint is not yet in the
// cache) resumes correctly on the next call rather than being
// reinterpreted from scratch.
//
// Decoder also mirrors the encoder's teach decisions: every byte it
// writes to output is fed through its own segmenter against the same
// cache used to resolve references, so as a peer's literal data streams
// past, this side's cache converges with the sender's without needing a
// round trip for every fingerprint it will eventually see again.
type Decoder struct {
	cache   Cache
	mirror  *segmenter
	pending []byte
}

// NewDecoder returns a Decoder that resolves references against, and
// teaches newly observed segments into, cache.
func NewDecoder(cache Cache) *Decoder {
	return &Decoder{cache: cache, mirror: newSegmenter(cache)}
}

// Decode consumes as much of input as it can, appending the decoded
// plaintext to output. Any fingerprint referenced but not present in the
// cache is added to unknown and decoding stops there, leaving the
// reference (and anything after it) buffered for the next call. Decode
// returns an error only on a malformed token stream.
func (d *Decoder) Decode(output *bytes.Buffer, input []byte, unknown map[Fingerprint]struct{}) error {
	d.pending = append(d.pending, input...)

	pos := 0
scan:
	for pos < len(d.pending) {
		b := d.pending[pos]
		if b != 0x00 {
			d.emit(output, b)
			pos++
			continue
		}

		if pos+1 >= len(d.pending) {
			break scan
		}
		switch d.pending[pos+1] {
		case 0x00:
			d.emit(output, 0x00)
			pos += 2
		case 0x01:
			const tokenLen = 2 + 8
			if pos+tokenLen > len(d.pending) {
				break scan
			}
			h := Fingerprint(binary.BigEndian.Uint64(d.pending[pos+2 : pos+tokenLen]))
			seg, ok := d.cache.Lookup(h)
			if !ok {
				unknown[h] = struct{}{}
				break scan
			}
			for _, sb := range seg.Bytes() {
				d.emit(output, sb)
			}
			pos += tokenLen
		default:
			return wanerr.New(wanerr.ProtocolViolation, "xcodec.Decode", "invalid escape sub-opcode")
		}
	}

	d.pending = append([]byte(nil), d.pending[pos:]...)
	return nil
}

func (d *Decoder) emit(output *bytes.Buffer, b byte) {
	output.WriteByte(b)
	d.mirror.feed(b, noopFeed)
}
