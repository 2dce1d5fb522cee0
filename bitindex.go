package nj

import "math/bits"

// Bit-index primitives over 64-byte vectors. These are pure functions with
// no persistent state; everything that carries information from one vector
// or block to the next lives in the caller (indexer.go).

// oddBits is the 64-bit constant with every odd-indexed bit set, used by
// the escaped-character recurrence in escapedMask.
const oddBits = 0xAAAAAAAAAAAAAAAA

// prefixXOR returns y where bit i of y is the XOR of bits 0..=i of x. It is
// the building block used to expand "unescaped quote" positions into
// "inside a string" spans: each quote toggles the in-string state for every
// following bit. Implemented as a doubling shift-xor, the bitwise
// equivalent of a carry-less multiply of x by all-ones.
func prefixXOR(x uint64) uint64 {
	x ^= x << 1
	x ^= x << 2
	x ^= x << 4
	x ^= x << 8
	x ^= x << 16
	x ^= x << 32
	return x
}

// matchByte returns a bitmask over block (at most 64 bytes, bit i for
// block[i]) of the bytes equal to c.
func matchByte(block []byte, c byte) uint64 {
	var mask uint64
	n := len(block)
	if n > vectorWidth {
		n = vectorWidth
	}
	for i := 0; i < n; i++ {
		if block[i] == c {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// matchStructural returns a bitmask over block of the bytes that are one of
// the six JSON structural characters "{}[]:,", irrespective of whether they
// sit inside a string (masking against the string bitmap happens at the
// call site in indexer.go).
func matchStructural(block []byte) uint64 {
	var mask uint64
	n := len(block)
	if n > vectorWidth {
		n = vectorWidth
	}
	for i := 0; i < n; i++ {
		if isStructuralByte(block[i]) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

func isStructuralByte(b byte) bool {
	switch b {
	case '{', '}', '[', ']', ':', ',':
		return true
	default:
		return false
	}
}

// extractBitsScalar appends base+i for every set bit i of mask, scanning
// from bit 0 up. Always correct; used as the oracle in tests and as the
// fallback path on CPUs without BMI2.
func extractBitsScalar(mask uint64, base int, dst []uint32) []uint32 {
	for i := 0; i < vectorWidth; i++ {
		if mask&(1<<uint(i)) != 0 {
			dst = append(dst, uint32(base+i))
		}
	}
	return dst
}

// extractBitsPopcnt appends the same positions as extractBitsScalar but
// walks only the set bits, clearing the lowest one on each iteration
// (mask &= mask-1) instead of testing all 64 bit positions.
func extractBitsPopcnt(mask uint64, base int, dst []uint32) []uint32 {
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		dst = append(dst, uint32(base+i))
		mask &= mask - 1
	}
	return dst
}

// escapedMask applies the classic unescaped-odd-length-run technique:
// given the bitmask S of backslashes
// in the current 64-byte vector, it returns the bitmask of bytes that are
// themselves escaped (i.e. immediately preceded by an odd-length run of
// backslashes), updating *prevEscaped — whose only meaningful bit is bit 0
// — to carry the run's parity into the next vector.
func escapedMask(s uint64, prevEscaped *uint64) uint64 {
	p := s &^ *prevEscaped
	m := p << 1
	e := ((m | oddBits) - p) ^ oddBits
	escaped := e ^ (s | *prevEscaped)
	*prevEscaped = (e & s) >> 63
	return escaped
}
