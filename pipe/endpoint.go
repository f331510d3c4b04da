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

package pipe

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/pion/logging"

	"github.com/launix-de/wanxcodec/cache"
	"github.com/launix-de/wanxcodec/wanerr"
	"github.com/launix-de/wanxcodec/wanio"
	"github.com/launix-de/wanxcodec/wanlog"
	"github.com/launix-de/wanxcodec/xcodec"
)

// Endpoint is one side of a pipe-pair: an encoder turning locally
// produced bytes into the wire protocol, and a decoder turning the wire
// protocol received from the peer back into bytes, sharing a single
// connection's worth of framing state. Its two halves are independent
// except at EOS/EOS_ACK, where each watches the other to decide when the
// underlying transport can finally be torn down.
type Endpoint struct {
	log        logging.LeveledLogger
	localUUID  xcodec.UUID
	localCache xcodec.Cache
	registry   *cache.Registry

	Wire   wanio.Sink // outgoing protocol bytes, to the peer
	Output wanio.Sink // outgoing decoded plaintext, to the local consumer

	mu sync.Mutex

	encoder            *xcodec.Encoder
	encoderSentEOS     bool
	encoderProducedEOS bool

	decoder               *xcodec.Decoder
	decoderCache          xcodec.Cache
	decoderBuffer         []byte
	decoderFrameBuffer    []byte
	decoderUnknownHashes  map[xcodec.Fingerprint]struct{}
	decoderReceivedEOS    bool // peer sent <EOS>
	decoderProducedEOS    bool // we closed Output, the local plaintext channel
	decoderReceivedEOSAck bool // peer sent <EOS_ACK>
	encoderSentEOSAck     bool // we sent <EOS_ACK> on the wire
}

// NewEndpoint returns an Endpoint whose encoder teaches and references
// segments through localCache (identified by localUUID in its HELLO),
// and whose decoder looks up a peer's mirror cache in registry (minting
// one via localCache.NewUUID on first contact).
func NewEndpoint(localUUID xcodec.UUID, localCache xcodec.Cache, registry *cache.Registry, wire, output wanio.Sink) *Endpoint {
	return &Endpoint{
		log:                  wanlog.Scoped("pipe"),
		localUUID:            localUUID,
		localCache:           localCache,
		registry:             registry,
		Wire:                 wire,
		Output:               output,
		decoderUnknownHashes: make(map[xcodec.Fingerprint]struct{}),
	}
}

// EncoderConsume accepts locally produced bytes for encoding and
// transmission to the peer. An empty buf signals local end-of-stream: a
// <EOS> is sent and no further calls are permitted.
func (e *Endpoint) EncoderConsume(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.encoderSentEOS {
		return wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint.EncoderConsume", "encoder already sent EOS")
	}

	var output bytes.Buffer

	if e.encoder == nil {
		output.WriteByte(byte(opHello))
		output.WriteByte(helloUUIDLen)
		output.Write(e.localUUID.Encode())
		e.encoder = xcodec.NewEncoder(e.localCache)
	}

	if len(buf) > 0 {
		var encoded bytes.Buffer
		e.encoder.Encode(&encoded, buf)
		// A short input may do nothing but fill the encoder's window
		// without producing any token yet; that is not an error, the
		// bytes surface on a later call or at Flush.
		if encoded.Len() > 0 {
			writeFrames(&output, encoded.Bytes())
		}
	} else {
		var encoded bytes.Buffer
		e.encoder.Flush(&encoded)
		if encoded.Len() > 0 {
			writeFrames(&output, encoded.Bytes())
		}
		output.WriteByte(byte(opEOS))
		e.encoderSentEOS = true
	}

	_, err := e.Wire.Write(output.Bytes())
	return err
}

func writeFrames(out *bytes.Buffer, encoded []byte) {
	for len(encoded) > 0 {
		n := len(encoded)
		if n > MaxFrame {
			n = MaxFrame
		}
		chunk := encoded[:n]
		encoded = encoded[n:]

		out.WriteByte(byte(opFrame))
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(n))
		out.Write(lenBuf[:])
		out.Write(chunk)
	}
}

// DecoderConsume accepts raw protocol bytes received from the peer. An
// empty buf signals the transport closed; if that happens before we have
// seen and processed the peer's <EOS>, it is reported as a protocol
// violation rather than silently swallowed.
func (e *Endpoint) DecoderConsume(buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(buf) == 0 {
		if !e.decoderProducedEOS {
			return wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint.DecoderConsume", "peer closed connection with data outstanding")
		}
		return nil
	}

	e.decoderBuffer = append(e.decoderBuffer, buf...)

	for len(e.decoderBuffer) > 0 {
		consumed, err := e.consumeOne()
		if err != nil {
			return err
		}
		if consumed == 0 {
			break // need more bytes to complete the current token
		}
		e.decoderBuffer = e.decoderBuffer[consumed:]

		// Drain the decoder whenever it has no outstanding ASKs, not just
		// when a frame just arrived: a LEARN that resolves the last
		// unknown hash must also resume decoding of whatever reference(s)
		// were left buffered in the decoder's pending state while that
		// hash was outstanding, even though decoderFrameBuffer is empty.
		if e.decoder != nil && len(e.decoderUnknownHashes) == 0 {
			if err := e.runDecoder(); err != nil {
				return err
			}
		}
	}

	return e.maybeFinishEOS()
}

// consumeOne parses a single opcode from the front of decoderBuffer,
// returning how many bytes it consumed (0 meaning the opcode is not yet
// fully present and the caller should wait for more data).
func (e *Endpoint) consumeOne() (int, error) {
	b := e.decoderBuffer
	o := op(b[0])
	switch o {
	case opHello:
		if e.decoderCache != nil {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "got HELLO twice")
		}
		if len(b) < 2 {
			return 0, nil
		}
		length := int(b[1])
		if len(b) < 2+length {
			return 0, nil
		}
		if length != helloUUIDLen {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "unsupported HELLO length")
		}
		uuid, ok := xcodec.DecodeUUID(b[2 : 2+length])
		if !ok {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "invalid UUID in HELLO")
		}
		e.decoderCache = e.registry.GetOrCreate(uuid, e.localCache)
		e.decoder = xcodec.NewDecoder(e.decoderCache)
		e.log.Infof("peer connected with cache %s", uuid)
		return 2 + length, nil

	case opAsk:
		if e.encoder == nil {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "got ASK before sending HELLO")
		}
		const need = 1 + 8
		if len(b) < need {
			return 0, nil
		}
		hash := xcodec.Fingerprint(binary.BigEndian.Uint64(b[1:need]))
		seg, ok := e.localCache.Lookup(hash)
		if !ok {
			return 0, wanerr.New(wanerr.CacheIO, "pipe.Endpoint", "unknown hash in ASK")
		}
		var learn bytes.Buffer
		learn.WriteByte(byte(opLearn))
		learn.Write(seg.Bytes())
		if _, err := e.Wire.Write(learn.Bytes()); err != nil {
			return 0, err
		}
		return need, nil

	case opLearn:
		if e.decoderCache == nil {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "got LEARN before HELLO")
		}
		need := 1 + xcodec.SegmentLen
		if len(b) < need {
			return 0, nil
		}
		seg := xcodec.NewSegment(b[1:need])
		hash := Fingerprint(seg)
		if _, asked := e.decoderUnknownHashes[hash]; !asked {
			e.log.Info("gratuitous LEARN without ASK")
		} else {
			delete(e.decoderUnknownHashes, hash)
		}
		if existing, ok := e.decoderCache.Lookup(hash); ok {
			if !existing.Equal(seg) {
				return 0, wanerr.New(wanerr.Collision, "pipe.Endpoint", "collision in LEARN")
			}
		} else {
			e.decoderCache.Enter(hash, seg)
		}
		return need, nil

	case opEOS:
		if e.decoderReceivedEOS {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "duplicate EOS")
		}
		e.decoderReceivedEOS = true
		return 1, nil

	case opEOSAck:
		if !e.encoderSentEOS {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "got EOS_ACK before sending EOS")
		}
		if e.decoderReceivedEOSAck {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "duplicate EOS_ACK")
		}
		e.decoderReceivedEOSAck = true
		return 1, nil

	case opFrame:
		if e.decoder == nil {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "got frame data before HELLO")
		}
		const head = 1 + 2
		if len(b) < head {
			return 0, nil
		}
		length := int(binary.BigEndian.Uint16(b[1:head]))
		if length == 0 || length > MaxFrame {
			return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "invalid frame length")
		}
		if len(b) < head+length {
			return 0, nil
		}
		e.decoderFrameBuffer = append(e.decoderFrameBuffer, b[head:head+length]...)
		return head + length, nil

	default:
		return 0, wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "unsupported opcode in pipe stream")
	}
}

// Fingerprint is the fingerprint a fresh LEARN segment is evaluated
// under: the same rolling hash the codec itself uses, computed over the
// whole SegmentLen window at once (there is no rolling to do for a
// single, already-aligned segment).
func Fingerprint(seg xcodec.Segment) xcodec.Fingerprint {
	return xcodec.FingerprintOf(seg)
}

func (e *Endpoint) runDecoder() error {
	var output bytes.Buffer
	if err := e.decoder.Decode(&output, e.decoderFrameBuffer, e.decoderUnknownHashes); err != nil {
		return err
	}
	e.decoderFrameBuffer = nil
	if output.Len() > 0 {
		if e.decoderProducedEOS {
			return wanerr.New(wanerr.ProtocolViolation, "pipe.Endpoint", "decoder produced output after EOS")
		}
		if _, err := e.Output.Write(output.Bytes()); err != nil {
			return err
		}
	}
	return e.sendAsks()
}

func (e *Endpoint) sendAsks() error {
	if len(e.decoderUnknownHashes) == 0 {
		return nil
	}
	var ask bytes.Buffer
	for hash := range e.decoderUnknownHashes {
		ask.WriteByte(byte(opAsk))
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(hash))
		ask.Write(buf[:])
	}
	_, err := e.Wire.Write(ask.Bytes())
	return err
}

func (e *Endpoint) sendEOSAck() error {
	e.encoderSentEOSAck = true
	_, err := e.Wire.Write([]byte{byte(opEOSAck)})
	return err
}

// maybeFinishEOS sends <EOS_ACK> once the peer's <EOS> has arrived and
// every reference it sent has been resolved (no outstanding ASKs or
// buffered frame data left to decode), closes Output at that same point,
// and tears down Wire once we have sent <EOS_ACK> and the peer has sent
// theirs, mirroring the shutdown discipline in the package comment.
func (e *Endpoint) maybeFinishEOS() error {
	resolved := len(e.decoderUnknownHashes) == 0 && len(e.decoderFrameBuffer) == 0

	if e.decoderReceivedEOS && !e.encoderSentEOSAck && resolved {
		if err := e.sendEOSAck(); err != nil {
			return err
		}
	}

	if e.decoderReceivedEOS && !e.decoderProducedEOS {
		if resolved {
			if err := e.Output.Close(); err != nil {
				return err
			}
			e.decoderProducedEOS = true
		}
	}

	if e.encoderSentEOSAck && e.decoderReceivedEOSAck && !e.encoderProducedEOS {
		if err := e.Wire.Close(); err != nil {
			return err
		}
		e.encoderProducedEOS = true
	}

	return nil
}
