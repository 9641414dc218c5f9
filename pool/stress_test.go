package pool

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManager_HandleIsolationUnderConcurrency hammers both maximum-size
// pools from multiple goroutines and checks that no chunk is ever handed
// out twice and no pool's bits leak into the other's. Occupancy snapshots
// taken around the traffic catch cross-handle corruption.
func TestManager_HandleIsolationUnderConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const (
		workersPerPool = 8
		iterations     = 400
	)

	m := NewManager()
	handles := []Handle{
		m.Add(rangeA, MaxPoolSize),
		m.Add(rangeB, MaxPoolSize),
	}

	// Pin a chunk in each pool so the steady-state snapshot is non-trivial.
	for _, h := range handles {
		_, err := m.Alloc(h, 2*SuperPageSize)
		require.NoError(t, err)
	}
	before := [][]uint64{
		m.pools[0].bits.Snapshot(),
		m.pools[1].bits.Snapshot(),
	}

	// Every page of every live chunk, process-wide. Two goroutines holding
	// an overlapping chunk at once means the bitmap scan raced its update.
	var livePages sync.Map

	errc := make(chan error, 2*workersPerPool)
	var wg sync.WaitGroup
	for pi, h := range handles {
		base := m.pools[pi].Base()
		for w := 0; w < workersPerPool; w++ {
			wg.Add(1)
			go func(h Handle, base uintptr, seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				var held [][2]uintptr

				for it := 0; it < iterations; it++ {
					if len(held) > 0 && rng.Intn(2) == 0 {
						i := rng.Intn(len(held))
						addr, size := held[i][0], held[i][1]
						for p := uintptr(0); p < size; p += SuperPageSize {
							livePages.Delete(addr + p)
						}
						m.Free(h, addr, size)
						held[i] = held[len(held)-1]
						held = held[:len(held)-1]
						continue
					}

					size := uintptr(1+rng.Intn(4)) * SuperPageSize
					addr, err := m.Alloc(h, size)
					if err != nil {
						continue // pool momentarily exhausted; keep going
					}
					if addr < base || addr+size > base+uintptr(MaxPoolSize) {
						errc <- fmt.Errorf("handle %d: chunk %#x+%#x outside its pool", h, addr, size)
						return
					}
					for p := uintptr(0); p < size; p += SuperPageSize {
						if _, loaded := livePages.LoadOrStore(addr+p, h); loaded {
							errc <- fmt.Errorf("handle %d: page %#x handed out twice", h, addr+p)
							return
						}
					}
					held = append(held, [2]uintptr{addr, size})
				}

				for _, c := range held {
					for p := uintptr(0); p < c[1]; p += SuperPageSize {
						livePages.Delete(c[0] + p)
					}
					m.Free(h, c[0], c[1])
				}
			}(h, base, int64(pi*workersPerPool+w))
		}
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Error(err)
	}

	// All transient chunks are freed; occupancy must be exactly the
	// pre-traffic snapshot for each pool.
	assert.Equal(t, before[0], m.pools[0].bits.Snapshot(), "pool 1 occupancy corrupted")
	assert.Equal(t, before[1], m.pools[1].bits.Snapshot(), "pool 2 occupancy corrupted")
}

// TestPool_ConcurrentSameChunkNeverOverlaps is the single-pool version:
// concurrent FindChunk calls are serialized by the pool lock and must
// return disjoint runs.
func TestPool_ConcurrentSameChunkNeverOverlaps(t *testing.T) {
	const workers = 16
	p := newTestPool(t, workers)

	addrs := make([]uintptr, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			addrs[i], errs[i] = p.FindChunk(SuperPageSize)
		}()
	}
	wg.Wait()

	seen := make(map[uintptr]bool, workers)
	for i, a := range addrs {
		require.NoError(t, errs[i], "worker %d", i)
		require.False(t, seen[a], "worker %d: address %#x handed out twice", i, a)
		seen[a] = true
	}
	assert.Equal(t, workers, p.AllocatedPages())
}
