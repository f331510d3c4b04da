package coss

import (
	"bytes"
	"testing"

	"github.com/launix-de/wanxcodec/xcodec"
)

func TestStripeAppendAndRetrieve(t *testing.T) {
	s := NewStripe()
	seg := xcodec.NewSegment(bytes.Repeat([]byte{0x42}, xcodec.SegmentLen))
	entry := s.Append(1234, seg)

	if entry.StripeNumber != s.Number() || entry.Pos != 0 || entry.Length != xcodec.SegmentLen {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !bytes.Equal(s.Segment(0), seg.Bytes()) {
		t.Fatalf("segment mismatch")
	}
	if s.Hash(0) != 1234 {
		t.Fatalf("hash mismatch")
	}
}

func TestStripeFullAfterArraySizeAppends(t *testing.T) {
	s := NewStripe()
	seg := xcodec.NewSegment(bytes.Repeat([]byte{0x01}, xcodec.SegmentLen))
	for i := 0; i < ArraySize; i++ {
		if s.Full() {
			t.Fatalf("stripe reported full after only %d appends", i)
		}
		s.Append(xcodec.Fingerprint(i+1), seg)
	}
	if !s.Full() {
		t.Fatalf("expected stripe to be full after %d appends", ArraySize)
	}
}

func TestStripeSerializeRoundTrip(t *testing.T) {
	s := NewStripe()
	s.Reset(7, 3)
	for i := 0; i < 5; i++ {
		seg := xcodec.NewSegment(bytes.Repeat([]byte{byte(i)}, xcodec.SegmentLen))
		s.Append(xcodec.Fingerprint(100+i), seg)
	}

	buf := make([]byte, StripeBytes())
	s.Serialize(buf)

	got := NewStripe()
	got.Deserialize(buf, 3)

	if got.Serial() != 7 {
		t.Fatalf("got serial %d, want 7", got.Serial())
	}
	if got.Number() != 3 {
		t.Fatalf("got number %d, want 3", got.Number())
	}
	if got.currentPos != 5 {
		t.Fatalf("got currentPos %d, want 5", got.currentPos)
	}
	for i := 0; i < 5; i++ {
		if got.Hash(uint32(i)) != xcodec.Fingerprint(100+i) {
			t.Fatalf("slot %d: hash mismatch", i)
		}
		want := bytes.Repeat([]byte{byte(i)}, xcodec.SegmentLen)
		if !bytes.Equal(got.Segment(uint32(i)), want) {
			t.Fatalf("slot %d: segment mismatch", i)
		}
	}
}

func TestStripeResetClearsAppends(t *testing.T) {
	s := NewStripe()
	seg := xcodec.NewSegment(bytes.Repeat([]byte{0x09}, xcodec.SegmentLen))
	s.Append(55, seg)
	s.Reset(1, 1)
	if s.currentPos != 0 {
		t.Fatalf("expected currentPos reset to 0, got %d", s.currentPos)
	}
	if s.Hash(0) != 0 {
		t.Fatalf("expected cleared hash array, got %d", s.Hash(0))
	}
}
