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

// Package wanio holds the small collaborator interfaces the protocol and
// cache layers are built against, so they can be driven by a TCP
// connection in production and by an in-process buffer in tests.
package wanio

import (
	"bytes"
	"io"
	"sync"
)

// Sink is one direction of a stream: bytes are written to it as they are
// produced, and Close signals that no more will come (the half of the
// stream this Sink represents has reached end-of-stream).
type Sink interface {
	io.Writer
	Close() error
}

// BufferSink is an in-memory Sink, used by tests and by anything that
// wants to inspect everything written to a side of a pipe-pair.
type BufferSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (s *BufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return s.buf.Write(p)
}

func (s *BufferSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *BufferSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Bytes returns everything written so far.
func (s *BufferSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// Take returns everything written so far and discards it, so repeated
// calls only return newly-produced bytes.
func (s *BufferSink) Take() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]byte(nil), s.buf.Bytes()...)
	s.buf.Reset()
	return out
}
