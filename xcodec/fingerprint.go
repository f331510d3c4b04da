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

import "github.com/launix-de/wanxcodec/xcodechash"

// FingerprintOf computes the fingerprint of an already-aligned segment
// in one shot. The encoder and decoder normally arrive at a fingerprint
// incrementally via the rolling hash as a window slides into place; a
// freshly received LEARN carries its SegmentLen bytes whole, with no
// window to roll, so this is the one place the codec hashes a buffer
// directly instead of through a segmenter.
func FingerprintOf(seg Segment) Fingerprint {
	return Fingerprint(xcodechash.Sum64(seg.Bytes()))
}
