package pool

import (
	"fmt"
	"sync"

	"github.com/joshuapare/pagepool/internal/bitset"
)

const (
	// SuperPageShift is the log2 of the tracking granularity.
	SuperPageShift = 21

	// SuperPageSize is the fixed granularity at which pools hand out
	// address space: 2 MiB. Every length and address crossing this
	// package's boundary is a multiple of it.
	SuperPageSize = 1 << SuperPageShift

	// MaxPoolSize is the largest range a single pool can track: 16 GiB.
	// Together with SuperPageSize it fixes the bitmap capacity.
	MaxPoolSize = 16 << 30

	// MaxPoolBits is the bitmap capacity in super pages.
	MaxPoolBits = MaxPoolSize / SuperPageSize
)

// Pool tracks which super pages of one contiguous reserved address range
// are handed out. The zero value is not usable; construct with New.
//
// All occupancy state is guarded by mu. The hint is the index below which
// every super page is known allocated; it may under-report free pages
// (costing scan time) but never claims an allocated page free, so pinning
// it at zero changes nothing but performance.
type Pool struct {
	mu   sync.Mutex
	bits *bitset.Bits
	hint int

	base uintptr
	end  uintptr

	// pinHint freezes the hint for property tests that verify it is a
	// pure scan-start optimization.
	pinHint bool
}

// New constructs a pool over the reserved range [base, base+length).
// The range must be super-page aligned, a positive multiple of
// SuperPageSize, and no larger than MaxPoolSize; violations panic.
// All super pages start out free.
func New(base, length uintptr) *Pool {
	if length == 0 || length%SuperPageSize != 0 {
		panic(fmt.Sprintf("pool: length %#x is not a positive multiple of the super page size", length))
	}
	if length > MaxPoolSize {
		panic(fmt.Sprintf("pool: length %#x exceeds the %d GiB pool maximum", length, MaxPoolSize>>30))
	}
	if base%SuperPageSize != 0 {
		panic(fmt.Sprintf("pool: base %#x is not super-page aligned", base))
	}
	return &Pool{
		bits: bitset.New(int(length>>SuperPageShift), MaxPoolBits),
		base: base,
		end:  base + length,
	}
}

// Base returns the start of the tracked range.
func (p *Pool) Base() uintptr { return p.base }

// Size returns the length of the tracked range in bytes.
func (p *Pool) Size() uintptr { return p.end - p.base }

// AllocatedPages returns the number of super pages currently handed out.
func (p *Pool) AllocatedPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bits.Count()
}

// FindChunk hands out the lowest-addressed run of size bytes of free super
// pages at or after the search hint. size must be a positive multiple of
// SuperPageSize. Returns ErrNoSpace, with no state change, when no
// sufficiently long run exists; the scan does not wrap below the hint.
func (p *Pool) FindChunk(size uintptr) (uintptr, error) {
	need := p.chunkPages(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.bits.FindRun(p.hint, need)
	if idx < 0 {
		return 0, ErrNoSpace
	}
	p.bits.SetRange(idx, need)
	if idx == p.hint && !p.pinHint {
		// Keep the hint tight: skip the new run and anything already
		// allocated right behind it.
		p.hint = p.bits.NextClear(idx + need)
	}
	return p.base + uintptr(idx)<<SuperPageShift, nil
}

// FreeChunk returns the run of size bytes starting at addr to the pool.
// addr must be a super-page-aligned address inside the pool's range and
// the run must be fully allocated; violations panic.
func (p *Pool) FreeChunk(addr, size uintptr) {
	pages := p.chunkPages(size)
	if addr < p.base || addr+size > p.end || (addr-p.base)%SuperPageSize != 0 {
		panic(fmt.Sprintf("pool: free of %#x+%#x outside pool [%#x, %#x)", addr, size, p.base, p.end))
	}
	idx := int((addr - p.base) >> SuperPageShift)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.bits.AllSet(idx, pages) {
		panic(fmt.Sprintf("pool: free of %#x+%#x but the run is not fully allocated", addr, size))
	}
	p.bits.ClearRange(idx, pages)
	if idx < p.hint {
		// Let future searches reuse the freed space.
		p.hint = idx
	}
}

// chunkPages validates a chunk size and converts it to super pages.
func (p *Pool) chunkPages(size uintptr) int {
	if size == 0 || size%SuperPageSize != 0 {
		panic(fmt.Sprintf("pool: size %#x is not a positive multiple of the super page size", size))
	}
	return int(size >> SuperPageShift)
}
