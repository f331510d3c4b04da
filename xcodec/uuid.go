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

import "fmt"

// UUID is the 16-byte opaque identifier for a cache instance, encoded on
// the wire as its raw bytes.
type UUID [UUIDSize]byte

// DecodeUUID reads a UUID from exactly UUIDSize raw bytes.
func DecodeUUID(b []byte) (UUID, bool) {
	var u UUID
	if len(b) != UUIDSize {
		return u, false
	}
	copy(u[:], b)
	return u, true
}

// Encode appends the UUID's raw bytes.
func (u UUID) Encode() []byte {
	b := make([]byte, UUIDSize)
	copy(b, u[:])
	return b
}

func (u UUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}
