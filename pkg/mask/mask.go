// Package mask implements the fixed-capacity CPU bit-set algebra used
// throughout the placement engine: the load table, the placement
// primitives, and the group resource protocol all operate on Masks
// rather than raw integers or OS cpu_set_t values.
package mask

import (
	"bytes"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Mask is a fixed-capacity set of CPU ids in [0, Len()).
type Mask struct {
	bits *bitset.BitSet
	n    int
}

// New returns an empty Mask with room for n CPU ids.
func New(n int) *Mask {
	if n < 0 {
		n = 0
	}
	return &Mask{bits: bitset.New(uint(n)), n: n}
}

// Full returns a Mask of capacity n with every bit set.
func Full(n int) *Mask {
	m := New(n)
	for i := 0; i < n; i++ {
		m.bits.Set(uint(i))
	}
	return m
}

// Len returns the mask's capacity (not its population count).
func (m *Mask) Len() int {
	return m.n
}

// Clone returns an independent copy of m.
func (m *Mask) Clone() *Mask {
	return &Mask{bits: m.bits.Clone(), n: m.n}
}

// Zero clears every bit in place.
func (m *Mask) Zero() {
	m.bits.ClearAll()
}

// Set sets bit cpu.
func (m *Mask) Set(cpu int) {
	m.checkRange(cpu)
	m.bits.Set(uint(cpu))
}

// Clear clears bit cpu.
func (m *Mask) Clear(cpu int) {
	m.checkRange(cpu)
	m.bits.Clear(uint(cpu))
}

// Test reports whether bit cpu is set.
func (m *Mask) Test(cpu int) bool {
	if cpu < 0 || cpu >= m.n {
		return false
	}
	return m.bits.Test(uint(cpu))
}

// Count returns the population count.
func (m *Mask) Count() int {
	return int(m.bits.Count())
}

// IsEmpty reports whether no bit is set.
func (m *Mask) IsEmpty() bool {
	return m.bits.None()
}

// FirstSet returns the lowest set bit, or (-1, false) if none.
func (m *Mask) FirstSet() (int, bool) {
	i, ok := m.bits.NextSet(0)
	if !ok {
		return -1, false
	}
	return int(i), true
}

// NextSet returns the lowest set bit strictly greater than after, or
// (-1, false) if none.
func (m *Mask) NextSet(after int) (int, bool) {
	if after < -1 {
		after = -1
	}
	i, ok := m.bits.NextSet(uint(after + 1))
	if !ok {
		return -1, false
	}
	return int(i), true
}

// LastSet returns the highest set bit, or (-1, false) if none.
func (m *Mask) LastSet() (int, bool) {
	last, found := -1, false
	for i, ok := m.FirstSet(); ok; i, ok = m.NextSet(i) {
		last, found = i, true
	}
	return last, found
}

// And returns a new mask that is the bitwise AND of m and other.
func (m *Mask) And(other *Mask) *Mask {
	return &Mask{bits: m.bits.Intersection(other.bits), n: m.n}
}

// Or returns a new mask that is the bitwise OR of m and other.
func (m *Mask) Or(other *Mask) *Mask {
	return &Mask{bits: m.bits.Union(other.bits), n: m.n}
}

// Xor returns a new mask that is the bitwise XOR of m and other.
func (m *Mask) Xor(other *Mask) *Mask {
	return &Mask{bits: m.bits.SymmetricDifference(other.bits), n: m.n}
}

// Complement returns ¬m within this mask's capacity.
func (m *Mask) Complement() *Mask {
	c := Full(m.n)
	c.bits.InPlaceSymmetricDifference(m.bits)
	return c
}

// AndInPlace ANDs other into m.
func (m *Mask) AndInPlace(other *Mask) {
	m.bits.InPlaceIntersection(other.bits)
}

// OrInPlace ORs other into m.
func (m *Mask) OrInPlace(other *Mask) {
	m.bits.InPlaceUnion(other.bits)
}

// XorInPlace XORs other into m.
func (m *Mask) XorInPlace(other *Mask) {
	m.bits.InPlaceSymmetricDifference(other.bits)
}

// Equal reports whether m and other have identical set bits.
func (m *Mask) Equal(other *Mask) bool {
	return m.bits.Equal(other.bits)
}

// Subset reports whether every bit set in m is also set in other.
func (m *Mask) Subset(other *Mask) bool {
	return other.bits.IsSuperSet(m.bits)
}

// ToSlice returns the set bits in ascending order.
func (m *Mask) ToSlice() []int {
	out := make([]int, 0, m.Count())
	for i, ok := m.FirstSet(); ok; i, ok = m.NextSet(i) {
		out = append(out, i)
	}
	return out
}

// SetRange sets every bit in [start, start+count).
func (m *Mask) SetRange(start, count int) {
	for i := start; i < start+count; i++ {
		m.Set(i)
	}
}

// String renders the mask as a comma-separated CPU list, collapsing
// runs into ranges (e.g. "0-3,8,12-15").
func (m *Mask) String() string {
	ids := m.ToSlice()
	if len(ids) == 0 {
		return ""
	}

	var buf bytes.Buffer
	start, prev := ids[0], ids[0]
	flush := func() {
		if buf.Len() > 0 {
			buf.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&buf, "%d", start)
		} else {
			fmt.Fprintf(&buf, "%d-%d", start, prev)
		}
	}
	for _, id := range ids[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return buf.String()
}

func (m *Mask) checkRange(cpu int) {
	if cpu < 0 || cpu >= m.n {
		panic(fmt.Sprintf("mask: cpu id %d out of range [0,%d)", cpu, m.n))
	}
}
