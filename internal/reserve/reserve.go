// Package reserve obtains inaccessible virtual address ranges from the
// operating system for the pool layer to track. Reservations are address
// space only — nothing is committed, and the pool layer never touches the
// memory; callers layer their own commit/decommit on top.
package reserve

import "errors"

// ErrPlacement is returned when an aligned reservation cannot be placed
// after releasing the probe mapping; another thread can take the target
// address in the window between the two calls.
var ErrPlacement = errors.New("reserve: could not place aligned reservation")

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

func checkArgs(length, align uintptr) {
	if length == 0 {
		panic("reserve: length must be positive")
	}
	if align == 0 || align&(align-1) != 0 {
		panic("reserve: align must be a power of two")
	}
}
