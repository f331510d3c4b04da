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

// Package wanerr defines the error kinds shared by the codec, cache and
// pipe-pair layers.
package wanerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with the handling policy it demands from callers.
type Kind int

const (
	// ProtocolViolation marks a malformed message, unexpected opcode,
	// duplicate EOS/EOS_ACK, or oversize frame. Fatal to the pipe-pair.
	ProtocolViolation Kind = iota
	// Collision marks a LEARN whose segment conflicts with a locally
	// stored segment for the same fingerprint. Fatal to the pipe-pair.
	Collision
	// CacheIO marks a COSS file read/write failure. Fatal to the cache
	// and therefore to every pipe-pair using it.
	CacheIO
	// IO marks an underlying byte-channel error. Treated as abrupt EOS.
	IO
	// LocalClose marks orderly termination requested by the application.
	LocalClose
)

func (k Kind) String() string {
	switch k {
	case ProtocolViolation:
		return "protocol violation"
	case Collision:
		return "collision"
	case CacheIO:
		return "cache io"
	case IO:
		return "io"
	case LocalClose:
		return "local close"
	default:
		return "unknown"
	}
}

// Error is a tagged error: the Kind decides whether the owning pipe-pair
// aborts or treats it as benign.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap tags an existing error with a Kind and the operation that produced it.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
