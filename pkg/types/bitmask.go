package types

import "math/bits"

// Bitmask is a 1024-bit set of grid slots, one bit per slot in row-major order.
type Bitmask [SlotCount / 32]uint32

// Get reports whether c is set. Out-of-range coordinates are never set.
func (m *Bitmask) Get(c Coord) bool {
	if !c.Valid() {
		return false
	}
	i := c.Index()
	return m[i/32]&(1<<(i%32)) != 0
}

// Set sets or clears c. Out-of-range coordinates are ignored.
func (m *Bitmask) Set(c Coord, on bool) {
	if !c.Valid() {
		return
	}
	i := c.Index()
	if on {
		m[i/32] |= 1 << (i % 32)
	} else {
		m[i/32] &^= 1 << (i % 32)
	}
}

// Count returns the number of set slots.
func (m *Bitmask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount32(w)
	}
	return n
}

// Coords returns the set slots in row-major order.
func (m *Bitmask) Coords() []Coord {
	out := make([]Coord, 0, m.Count())
	for i := range SlotCount {
		if m[i/32]&(1<<(i%32)) != 0 {
			out = append(out, CoordFromIndex(i))
		}
	}
	return out
}
