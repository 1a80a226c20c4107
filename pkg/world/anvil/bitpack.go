package anvil

// This file implements the packed bit-vector convention shared by the two
// independently-encoded sub-formats in a chunk: the 4096-entry palette
// index array (variable bits/value) and the 256-entry heightmap (fixed 9
// bits/value). Both assume post-1.16 Anvil semantics: no value straddles
// a long boundary, and the leftover high bits of each long are padding.
//
// Each packed long must be treated as an unsigned 64-bit word before any
// field is extracted from it: shifting the signed int64 representation
// directly would sign-extend a field occupying the top bits instead of
// zero-filling it, corrupting every value above the midpoint of its
// range. This package always reinterprets as uint64 before shifting.

// valuesPerLong returns how many b-bit values fit in one 64-bit word under
// the non-straddling rule.
func valuesPerLong(b int) int {
	return 64 / b
}

// locate maps a linear value index to its containing long and the bit
// offset of that value's low bit within that long.
func locate(i, b int) (longIndex, offsetBits int) {
	perLong := valuesPerLong(b)
	return i / perLong, (i % perLong) * b
}

// unpack extracts a b-bit unsigned field at bit offset from a packed long.
// long is reinterpreted as uint64 before shifting; shifting the signed
// representation directly would sign-extend high-bit fields instead of
// zero-filling them.
func unpack(long int64, offset, b int) uint64 {
	mask := uint64(1)<<uint(b) - 1
	return (uint64(long) >> uint(offset)) & mask
}

// unpackAt is the composition of locate+unpack used by every random-access
// getter in this package: given a packed buffer, a linear index, and a
// field width, return the decoded value at that index.
func unpackAt(packed []int64, i, b int) uint64 {
	longIndex, offset := locate(i, b)
	return unpack(packed[longIndex], offset, b)
}

// bitsPerBlock computes the palette index field width used by the
// 4096-entry block array: at least 4 bits, otherwise the smallest width
// that can address every palette entry.
func bitsPerBlock(paletteLen int) int {
	return maxInt(4, bitLength(paletteLen-1))
}

// bitLength returns the number of bits needed to represent n (0 needs 0
// bits), i.e. ⌈log2(n+1)⌉.
func bitLength(n int) int {
	if n <= 0 {
		return 0
	}
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const heightmapBitsPerValue = 9
