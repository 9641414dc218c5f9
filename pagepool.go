// Package pagepool hands out fixed-granularity super pages from large
// reserved virtual address ranges, for the layers of a memory allocator
// that sit above address-space reservation and below object allocation.
//
// The package-level functions are a thin façade over the process-wide
// registry in the pool package, plus the composition point between the
// platform reservation helpers and that registry (AddReserved). Callers
// that want explicit ownership instead of process-wide state can use
// pool.NewManager directly.
package pagepool

import (
	"sync"

	"github.com/joshuapare/pagepool/internal/reserve"
	"github.com/joshuapare/pagepool/oom"
	"github.com/joshuapare/pagepool/pool"
)

// Handle identifies a live pool in the process-wide registry; 0 is
// invalid.
type Handle = pool.Handle

// Tracking granularity and limits, re-exported from the pool package.
const (
	SuperPageSize = pool.SuperPageSize
	MaxPoolSize   = pool.MaxPoolSize
	MaxPools      = pool.MaxPools
)

// ErrNoSpace reports pool exhaustion from Alloc.
var ErrNoSpace = pool.ErrNoSpace

// Add registers the already-reserved range [base, base+length) with the
// process-wide registry and returns its handle. Called once per reserved
// range, typically once per protection domain at startup.
func Add(base, length uintptr) Handle {
	return pool.Instance().Add(base, length)
}

// Remove retires the pool at h. Controlled shutdown and test reset only;
// the caller guarantees no Alloc/Free for h is in flight.
func Remove(h Handle) {
	pool.Instance().Remove(h)
}

// Alloc hands out length bytes of contiguous super pages from the pool at
// h. Returns ErrNoSpace when that pool has no sufficiently long free run.
func Alloc(h Handle, length uintptr) (uintptr, error) {
	return pool.Instance().Alloc(h, length)
}

// Free returns length bytes starting at addr to the pool at h.
func Free(h Handle, addr, length uintptr) {
	pool.Instance().Free(h, addr, length)
}

// SetOOMCallback installs the process-wide out-of-memory hook. Wired
// exactly once during allocator initialization; a second call panics.
func SetOOMCallback(fn func()) {
	oom.SetCallback(fn)
}

// RunOOMCallback invokes the hook, if set. Called by the allocator on any
// unrecoverable exhaustion, not only ones originating in this layer.
func RunOOMCallback() {
	oom.RunCallback()
}

// reservations tracks the release function for each range obtained via
// AddReserved, keyed by handle, so RemoveReserved can give the address
// space back.
var (
	reservationsMu sync.Mutex
	reservations   = make(map[Handle]func() error)
)

// AddReserved reserves length bytes of super-page-aligned, inaccessible
// address space from the operating system and registers it with the
// process-wide registry. Returns the handle and the reserved base.
func AddReserved(length uintptr) (Handle, uintptr, error) {
	base, release, err := reserve.Reserve(length, SuperPageSize)
	if err != nil {
		return 0, 0, err
	}
	h := pool.Instance().Add(base, length)

	reservationsMu.Lock()
	reservations[h] = release
	reservationsMu.Unlock()
	return h, base, nil
}

// RemoveReserved retires the pool at h and releases the address space
// obtained by the matching AddReserved. Panics if h did not come from
// AddReserved.
func RemoveReserved(h Handle) error {
	reservationsMu.Lock()
	release, ok := reservations[h]
	delete(reservations, h)
	reservationsMu.Unlock()
	if !ok {
		panic("pagepool: handle has no reservation to release")
	}

	pool.Instance().Remove(h)
	return release()
}

// ResetForTesting empties the process-wide registry and releases any
// ranges obtained via AddReserved. Test harness use only.
func ResetForTesting() {
	reservationsMu.Lock()
	pending := reservations
	reservations = make(map[Handle]func() error)
	reservationsMu.Unlock()

	pool.Instance().ResetForTesting()
	for _, release := range pending {
		_ = release()
	}
}
