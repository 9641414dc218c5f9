// Package bitset provides a fixed-capacity bit vector with first-fit run
// search over clear bits. It backs the occupancy tracking of the pool
// package: one bit per super page, 1 = allocated, 0 = free.
package bitset

import "math/bits"

const wordBits = 64

// Bits is a bit vector whose storage is sized once, at construction, for a
// fixed capacity. The addressable prefix (Len) may be smaller than the
// capacity; bits at or beyond Len are never set. Keeping the backing array
// at full capacity means no reallocation ever happens on the allocation
// path, whatever the tracked range's actual size.
type Bits struct {
	words []uint64
	n     int
}

// New returns a vector addressing n bits with storage for capacity bits.
// Panics if n is negative or exceeds capacity.
func New(n, capacity int) *Bits {
	if n < 0 || n > capacity {
		panic("bitset: bit count out of range for capacity")
	}
	return &Bits{
		words: make([]uint64, (capacity+wordBits-1)/wordBits),
		n:     n,
	}
}

// Len returns the number of addressable bits.
func (b *Bits) Len() int { return b.n }

// Test reports whether bit i is set.
func (b *Bits) Test(i int) bool {
	b.checkRange(i, 1)
	return b.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// SetRange sets the n bits starting at i.
func (b *Bits) SetRange(i, n int) {
	b.checkRange(i, n)
	for n > 0 {
		off := i % wordBits
		cnt := min(n, wordBits-off)
		b.words[i/wordBits] |= rangeMask(off, cnt)
		i += cnt
		n -= cnt
	}
}

// ClearRange clears the n bits starting at i.
func (b *Bits) ClearRange(i, n int) {
	b.checkRange(i, n)
	for n > 0 {
		off := i % wordBits
		cnt := min(n, wordBits-off)
		b.words[i/wordBits] &^= rangeMask(off, cnt)
		i += cnt
		n -= cnt
	}
}

// AllSet reports whether every one of the n bits starting at i is set.
func (b *Bits) AllSet(i, n int) bool {
	b.checkRange(i, n)
	for n > 0 {
		off := i % wordBits
		cnt := min(n, wordBits-off)
		m := rangeMask(off, cnt)
		if b.words[i/wordBits]&m != m {
			return false
		}
		i += cnt
		n -= cnt
	}
	return true
}

// NoneSet reports whether every one of the n bits starting at i is clear.
func (b *Bits) NoneSet(i, n int) bool {
	b.checkRange(i, n)
	for n > 0 {
		off := i % wordBits
		cnt := min(n, wordBits-off)
		if b.words[i/wordBits]&rangeMask(off, cnt) != 0 {
			return false
		}
		i += cnt
		n -= cnt
	}
	return true
}

// NextClear returns the index of the first clear bit at or after i, or Len
// if every bit from i onward is set.
func (b *Bits) NextClear(i int) int {
	if i < 0 {
		panic("bitset: negative index")
	}
	for i < b.n {
		off := i % wordBits
		z := bits.TrailingZeros64(^(b.words[i/wordBits] >> uint(off)))
		if z >= wordBits-off {
			// Remainder of this word is fully set.
			i += wordBits - off
			continue
		}
		if i+z >= b.n {
			break
		}
		return i + z
	}
	return b.n
}

// NextSet returns the index of the first set bit at or after i, or Len if
// every bit from i onward is clear.
func (b *Bits) NextSet(i int) int {
	if i < 0 {
		panic("bitset: negative index")
	}
	for i < b.n {
		off := i % wordBits
		w := b.words[i/wordBits] >> uint(off)
		if w != 0 {
			return i + bits.TrailingZeros64(w)
		}
		i += wordBits - off
	}
	return b.n
}

// FindRun returns the lowest index at or after start where n consecutive
// clear bits begin, or -1 if no such run exists before Len. The scan never
// wraps.
func (b *Bits) FindRun(start, n int) int {
	if start < 0 {
		panic("bitset: negative index")
	}
	if n <= 0 {
		panic("bitset: run length must be positive")
	}
	i := start
	for i+n <= b.n {
		i = b.NextClear(i)
		if i+n > b.n {
			return -1
		}
		j := b.NextSet(i + 1)
		if j >= i+n {
			return i
		}
		i = j + 1
	}
	return -1
}

// Count returns the number of set bits.
func (b *Bits) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Snapshot returns a copy of the underlying words, for occupancy
// comparisons in tests.
func (b *Bits) Snapshot() []uint64 {
	out := make([]uint64, len(b.words))
	copy(out, b.words)
	return out
}

func (b *Bits) checkRange(i, n int) {
	if i < 0 || n < 0 || i+n > b.n {
		panic("bitset: range out of bounds")
	}
}

// rangeMask returns a mask of n set bits starting at off. n must be in
// [1, 64-off].
func rangeMask(off, n int) uint64 {
	return (^uint64(0) >> uint(wordBits-n)) << uint(off)
}
