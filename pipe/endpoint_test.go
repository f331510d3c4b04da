package pipe

import (
	"bytes"
	"testing"

	"github.com/launix-de/wanxcodec/cache"
	"github.com/launix-de/wanxcodec/wanerr"
	"github.com/launix-de/wanxcodec/wanio"
	"github.com/launix-de/wanxcodec/xcodec"
)

// harness wires two Endpoints back to back: a's Wire output is pumped
// into b's DecoderConsume, and b's Wire output into a's, so tests can
// drive one side and observe both.
type harness struct {
	t *testing.T

	aCache, bCache *cache.Registry
	aLocal, bLocal *cache.Memory

	a, b         *Endpoint
	aWire, bWire *wanio.BufferSink
	aOut, bOut   *wanio.BufferSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t}
	h.aCache = cache.NewRegistry()
	h.bCache = cache.NewRegistry()
	h.aLocal = cache.NewMemory(cache.NewUUID())
	h.bLocal = cache.NewMemory(cache.NewUUID())

	h.aWire, h.bWire = &wanio.BufferSink{}, &wanio.BufferSink{}
	h.aOut, h.bOut = &wanio.BufferSink{}, &wanio.BufferSink{}

	h.a = NewEndpoint(h.aLocal.UUID(), h.aLocal, h.aCache, h.aWire, h.aOut)
	h.b = NewEndpoint(h.bLocal.UUID(), h.bLocal, h.bCache, h.bWire, h.bOut)
	return h
}

// pump delivers everything written to each side's Wire to the other
// side's decoder, repeating until neither side has anything new to say
// (a single exchange can cascade: an ASK triggers a LEARN, which may in
// turn unblock buffered frame data).
func (h *harness) pump() {
	h.t.Helper()
	for {
		aOut := h.aWire.Take()
		bOut := h.bWire.Take()
		if len(aOut) == 0 && len(bOut) == 0 {
			return
		}
		if len(aOut) > 0 {
			if err := h.b.DecoderConsume(aOut); err != nil {
				h.t.Fatalf("b.DecoderConsume: %v", err)
			}
		}
		if len(bOut) > 0 {
			if err := h.a.DecoderConsume(bOut); err != nil {
				h.t.Fatalf("a.DecoderConsume: %v", err)
			}
		}
	}
}

func TestHandshakeAndDataTransfer(t *testing.T) {
	h := newHarness(t)

	msg := []byte("hello across the wan accelerator")
	if err := h.a.EncoderConsume(msg); err != nil {
		t.Fatalf("EncoderConsume: %v", err)
	}
	h.pump()

	if err := h.a.EncoderConsume(nil); err != nil { // local EOF
		t.Fatalf("EncoderConsume(EOF): %v", err)
	}
	h.pump()

	got := h.bOut.Take()
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %q, want %q", got, msg)
	}
	if !h.bOut.Closed() {
		t.Fatalf("expected b's Output to be closed after EOS")
	}
}

func TestLearnAskAcrossSeparateCaches(t *testing.T) {
	h := newHarness(t)

	block := bytes.Repeat([]byte("redundant-segment-content-64-bytes-long!!!!!!!!"), 1)
	for len(block) < xcodec.SegmentLen {
		block = append(block, '!')
	}
	block = block[:xcodec.SegmentLen]
	payload := append(append([]byte{}, block...), block...)

	// Teach a's cache about the block directly (as if it had arrived
	// over a different, already-closed connection sharing a's uuid),
	// without b ever seeing it, so the reference a sends forces an ASK.
	h.aLocal.Enter(xcodec.FingerprintOf(xcodec.NewSegment(block)), xcodec.NewSegment(block))

	if err := h.a.EncoderConsume(payload); err != nil {
		t.Fatalf("EncoderConsume: %v", err)
	}
	if err := h.a.EncoderConsume(nil); err != nil {
		t.Fatalf("EncoderConsume(EOF): %v", err)
	}
	h.pump()

	got := h.bOut.Take()
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestLearnCollisionIsReported(t *testing.T) {
	h := newHarness(t)

	// Establish the HELLO handshake first.
	if err := h.a.EncoderConsume([]byte("x")); err != nil {
		t.Fatalf("EncoderConsume: %v", err)
	}
	h.pump()

	seg := xcodec.NewSegment(bytes.Repeat([]byte{0x11}, xcodec.SegmentLen))
	hash := xcodec.FingerprintOf(seg)
	other := xcodec.NewSegment(bytes.Repeat([]byte{0x22}, xcodec.SegmentLen))

	h.b.decoderUnknownHashes[hash] = struct{}{}
	h.b.decoderCache.Enter(hash, other)

	var learn bytes.Buffer
	learn.WriteByte(byte(opLearn))
	learn.Write(seg.Bytes())

	err := h.b.DecoderConsume(learn.Bytes())
	if err == nil {
		t.Fatalf("expected a collision error")
	}
	if !wanerr.Is(err, wanerr.Collision) {
		t.Fatalf("expected a Collision error, got %v", err)
	}
}

func TestOversizeFrameLengthRejected(t *testing.T) {
	h := newHarness(t)

	if err := h.a.EncoderConsume([]byte("x")); err != nil {
		t.Fatalf("EncoderConsume: %v", err)
	}
	h.pump()

	var bad bytes.Buffer
	bad.WriteByte(byte(opFrame))
	bad.WriteByte(0xFF)
	bad.WriteByte(0xFF) // length = 65535, greater than MaxFrame
	bad.Write(bytes.Repeat([]byte{0}, 10))

	if err := h.b.DecoderConsume(bad.Bytes()); err == nil {
		t.Fatalf("expected an oversize frame length to be rejected")
	}
}

func TestShutdownRequiresBothEOSAcks(t *testing.T) {
	h := newHarness(t)

	if err := h.a.EncoderConsume([]byte("short")); err != nil {
		t.Fatalf("EncoderConsume: %v", err)
	}
	h.pump()
	if err := h.a.EncoderConsume(nil); err != nil {
		t.Fatalf("EncoderConsume(EOF): %v", err)
	}
	h.pump()

	if h.aWire.Closed() {
		t.Fatalf("a's wire should stay open until b also sends EOS and both ACKs cross")
	}

	if err := h.b.EncoderConsume(nil); err != nil {
		t.Fatalf("b EncoderConsume(EOF): %v", err)
	}
	h.pump()

	if !h.aWire.Closed() || !h.bWire.Closed() {
		t.Fatalf("expected both wires closed once EOS_ACKs crossed")
	}
}
