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

package coss

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// CompressorID is the per-stripe header tag recording which compressor
// was used on a stripe's payload. A stripe is written once and read
// whole, which is exactly the buffered (non-streaming) shape these
// compressors are simplest to use in; segments that are themselves
// already-deduplicated codec output compress further against the
// low-entropy padding and repeated structure a stripe tends to carry.
type CompressorID byte

const (
	CompressorIdentity CompressorID = 0
	CompressorLZ4      CompressorID = 1
	CompressorXZ       CompressorID = 2
)

// Compressor compresses and decompresses a stripe's payload.
type Compressor interface {
	ID() CompressorID
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// CompressorByID returns the Compressor for an id read from a stripe header.
func CompressorByID(id CompressorID) (Compressor, error) {
	switch id {
	case CompressorIdentity:
		return identityCompressor{}, nil
	case CompressorLZ4:
		return lz4Compressor{}, nil
	case CompressorXZ:
		return xzCompressor{}, nil
	default:
		return nil, fmt.Errorf("coss: unknown compressor id %d", id)
	}
}

type identityCompressor struct{}

func (identityCompressor) ID() CompressorID                       { return CompressorIdentity }
func (identityCompressor) Compress(src []byte) ([]byte, error)   { return src, nil }
func (identityCompressor) Decompress(src []byte) ([]byte, error) { return src, nil }

type lz4Compressor struct{}

func (lz4Compressor) ID() CompressorID { return CompressorLZ4 }

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	var out bytes.Buffer
	w := lz4.NewWriter(&out)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type xzCompressor struct{}

func (xzCompressor) ID() CompressorID { return CompressorXZ }

func (xzCompressor) Compress(src []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := xz.NewWriter(&out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (xzCompressor) Decompress(src []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
