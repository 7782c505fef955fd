package kura

import "math/bits"

// bitmask256 is a set of type ids in [0, 256). Bit id%64 of word id/64 marks
// membership. It is a comparable value so signatures can key maps.
type bitmask256 [4]uint64

func (m *bitmask256) set(id uint8) {
	m[id>>6] |= 1 << (id & 63)
}

func (m *bitmask256) unset(id uint8) {
	m[id>>6] &^= 1 << (id & 63)
}

// contains reports whether m is a superset of sub.
func (m bitmask256) contains(sub bitmask256) bool {
	for i, w := range sub {
		if m[i]&w != w {
			return false
		}
	}
	return true
}

func (m bitmask256) containsBit(id uint8) bool {
	return m[id>>6]>>(id&63)&1 == 1
}

// intersects reports whether m and other share a bit.
func (m bitmask256) intersects(other bitmask256) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}

func (m bitmask256) or(other bitmask256) bitmask256 {
	return bitmask256{m[0] | other[0], m[1] | other[1], m[2] | other[2], m[3] | other[3]}
}

func (m bitmask256) andNot(other bitmask256) bitmask256 {
	return bitmask256{m[0] &^ other[0], m[1] &^ other[1], m[2] &^ other[2], m[3] &^ other[3]}
}

func (m bitmask256) isZero() bool {
	return m[0] == 0 && m[1] == 0 && m[2] == 0 && m[3] == 0
}

// count returns the number of bits set.
func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// forEach calls fn for every set bit in ascending order.
func (m bitmask256) forEach(fn func(bit uint8)) {
	for i, word := range m {
		for word != 0 {
			o := bits.TrailingZeros64(word)
			fn(uint8(i<<6 + o))
			word &= word - 1
		}
	}
}
