// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package hpack

// maxIntegerOctets caps a prefixed integer at 5 octets (prefix + 4 continuations).
// RFC 7541 leaves the length unbounded; real header blocks never need more.
const maxIntegerOctets = 5

// DecodeInt decodes an RFC 7541 section 5.1 integer with an N-bit prefix from
// the start of buf. It returns the value and the number of octets consumed.
func DecodeInt(buf []byte, prefix uint8) (int, int, error) {
	if prefix < 1 || prefix > 8 {
		return 0, 0, ErrInvalidInteger
	}
	if len(buf) == 0 {
		return 0, 0, ErrNotEnoughOctets
	}

	mask := byte(0xff)
	if prefix < 8 {
		mask = byte(1)<<prefix - 1
	}

	value := int(buf[0] & mask)
	if value < int(mask) {
		return value, 1, nil
	}

	n := 1
	shift := 0
	for _, b := range buf[1:] {
		n++
		value += int(b&0x7f) << shift

		if b&0x80 == 0 {
			return value, n, nil
		}
		if n == maxIntegerOctets {
			return 0, 0, ErrInvalidInteger
		}
		shift += 7
	}

	return 0, 0, ErrNotEnoughOctets
}
