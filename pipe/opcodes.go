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

// Package pipe implements the bidirectional framing protocol that
// carries the codec's token stream over a byte-oriented transport:
// HELLO exchanges cache UUIDs, LEARN/ASK resolve fingerprints the
// decoder does not yet have cached, and EOS/EOS_ACK bring the two
// directions down cleanly.
package pipe

// op is a one-byte opcode. The codec's own escape byte is 0x00, which
// doubles as XCODEC_PIPE_OP_FRAME; the control opcodes live in the high
// range so they can never be confused with a frame length's high byte
// (frame lengths are capped at MaxFrame, well under 0xFB).
type op byte

const (
	opFrame  op = 0x00
	opEOSAck op = 0xFB
	opEOS    op = 0xFC
	opAsk    op = 0xFD
	opLearn  op = 0xFE
	opHello  op = 0xFF
)

// MaxFrame is the largest payload a single FRAME may carry.
const MaxFrame = 32768

// helloUUIDLen is the HELLO payload length: just the sender's cache UUID.
const helloUUIDLen = 16
