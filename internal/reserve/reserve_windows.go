//go:build windows

package reserve

import (
	"golang.org/x/sys/windows"
)

// maxPlacementTries bounds the realign retry loop. VirtualAlloc cannot
// partially release a reservation, so alignment works by probing, freeing
// the probe, and re-reserving at the aligned address — which another
// thread can steal in between.
const maxPlacementTries = 8

// Reserve reserves length bytes of PAGE_NOACCESS address space whose base
// is aligned to align (a power of two). The returned release function
// frees the reservation.
func Reserve(length, align uintptr) (uintptr, func() error, error) {
	checkArgs(length, align)

	for try := 0; try < maxPlacementTries; try++ {
		probe, err := windows.VirtualAlloc(0, length+align, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if err != nil {
			return 0, nil, err
		}
		aligned := alignUp(probe, align)
		if err := windows.VirtualFree(probe, 0, windows.MEM_RELEASE); err != nil {
			return 0, nil, err
		}
		placed, err := windows.VirtualAlloc(aligned, length, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if err != nil {
			// Lost the race for the address; probe again.
			continue
		}
		release := func() error {
			return windows.VirtualFree(placed, 0, windows.MEM_RELEASE)
		}
		return placed, release, nil
	}
	return 0, nil, ErrPlacement
}
