//go:build !unix && !windows

package reserve

import (
	"sync"
	"unsafe"
)

// Without OS support the range is carved out of an ordinary heap
// allocation and pinned for the lifetime of the reservation.
var (
	pinsMu sync.Mutex
	pins   = make(map[uintptr][]byte)
)

// Reserve allocates length bytes at an align-aligned base from the Go
// heap. The returned release function unpins the backing allocation.
func Reserve(length, align uintptr) (uintptr, func() error, error) {
	checkArgs(length, align)

	buf := make([]byte, length+align)
	aligned := alignUp(uintptr(unsafe.Pointer(&buf[0])), align)

	pinsMu.Lock()
	pins[aligned] = buf
	pinsMu.Unlock()

	release := func() error {
		pinsMu.Lock()
		delete(pins, aligned)
		pinsMu.Unlock()
		return nil
	}
	return aligned, release, nil
}
