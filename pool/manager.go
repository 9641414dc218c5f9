package pool

import (
	"fmt"
	"sync"
)

// MaxPools is the number of registry slots. The allocator above this layer
// needs exactly one pool per protection domain; bump this constant if more
// domains appear — nothing in the algorithm depends on the value.
const MaxPools = 2

// Handle identifies a live registry slot. Handles are 1-based; 0 is the
// invalid sentinel and never refers to a pool.
type Handle uint32

// InvalidHandle is the zero sentinel.
const InvalidHandle Handle = 0

// Manager multiplexes up to MaxPools pools behind stable handles. The slot
// table is fixed capacity so the registry itself never allocates after
// startup.
//
// mu guards slot assignment only. A slot's pool pointer is written by Add
// before its handle escapes and is not touched again until Remove, so
// Alloc/Free dispatch reads it without the lock. The caller must not race
// Alloc/Free against Remove of the same handle.
type Manager struct {
	mu    sync.Mutex
	pools [MaxPools]*Pool
}

var (
	instance     *Manager
	instanceOnce sync.Once
)

// Instance returns the process-wide manager, constructing it on first use.
// Safe under concurrent first calls.
func Instance() *Manager {
	instanceOnce.Do(func() {
		instance = &Manager{}
	})
	return instance
}

// NewManager returns a fresh, empty manager. Production code shares
// Instance; separate managers exist for tests that want isolation without
// touching process-wide state.
func NewManager() *Manager { return &Manager{} }

// Add constructs a pool over the reserved range [base, base+length) in the
// first empty slot and returns its handle. Panics when every slot is in
// use, or when New rejects the range.
func (m *Manager) Add(base, length uintptr) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.pools {
		if p == nil {
			m.pools[i] = New(base, length)
			return Handle(i + 1)
		}
	}
	panic(fmt.Sprintf("pool: all %d manager slots are in use", MaxPools))
}

// Remove retires the pool at h and empties its slot for reuse by a later
// Add. The caller guarantees no Alloc/Free for h is in flight.
func (m *Manager) Remove(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h == InvalidHandle || int(h) > MaxPools || m.pools[h-1] == nil {
		panic(fmt.Sprintf("pool: remove of handle %d which has no live pool", h))
	}
	m.pools[h-1] = nil
}

// Alloc hands out length bytes of contiguous super pages from the pool at
// h. Returns ErrNoSpace when that pool is exhausted.
func (m *Manager) Alloc(h Handle, length uintptr) (uintptr, error) {
	return m.get(h).FindChunk(length)
}

// Free returns length bytes starting at addr to the pool at h.
func (m *Manager) Free(h Handle, addr, length uintptr) {
	m.get(h).FreeChunk(addr, length)
}

// ResetForTesting empties every slot, restoring the just-constructed
// state. Test harness use only; it does not coordinate with concurrent
// traffic.
func (m *Manager) ResetForTesting() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.pools {
		m.pools[i] = nil
	}
}

func (m *Manager) get(h Handle) *Pool {
	if h == InvalidHandle || int(h) > MaxPools {
		panic(fmt.Sprintf("pool: invalid handle %d", h))
	}
	p := m.pools[h-1]
	if p == nil {
		panic(fmt.Sprintf("pool: handle %d does not refer to a live pool", h))
	}
	return p
}
