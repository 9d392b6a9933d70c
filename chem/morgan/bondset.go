package morgan

import (
	"encoding/binary"
)

// bondset is a fixed width bitset over bond indices
type bondset []uint64

func newBondset(n int) bondset {
	return make(bondset, (n+63)/64)
}

func (s bondset) clone() bondset {
	return append(bondset(nil), s...)
}

func (s bondset) set(i int) {
	s[i/64] |= 1 << uint(i%64)
}

func (s bondset) or(o bondset) {
	for i := range s {
		s[i] |= o[i]
	}
}

func (s bondset) compare(o bondset) int {
	for i := range s {
		switch {
		case s[i] < o[i]:
			return -1
		case s[i] > o[i]:
			return 1
		}
	}
	return 0
}

func (s bondset) key() string {
	b := make([]byte, 8*len(s))
	for i, x := range s {
		binary.LittleEndian.PutUint64(b[8*i:], x)
	}
	return string(b)
}
