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

// Package cache implements the in-memory Cache variant and the
// process-wide registry that maps a cache UUID to its instance.
package cache

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/launix-de/wanxcodec/xcodec"
)

var uuidCounter = uint64(time.Now().UnixNano())

// NewUUID returns a fresh cache UUID without touching crypto/rand: a
// HELLO is sent on every new connection, so startup latency here matters
// more than unpredictability.
func NewUUID() xcodec.UUID {
	ctr := atomic.AddUint64(&uuidCounter, 1)
	now := uint64(time.Now().UnixNano())
	var raw [16]byte
	binary.LittleEndian.PutUint64(raw[0:8], ctr)
	binary.LittleEndian.PutUint64(raw[8:16], ctr^now^(now<<17))
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80

	g := uuid.UUID(raw)
	u, _ := xcodec.DecodeUUID(g[:])
	return u
}
