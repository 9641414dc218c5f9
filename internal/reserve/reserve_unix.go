//go:build unix

package reserve

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Reserve maps length bytes of PROT_NONE address space whose base is
// aligned to align (a power of two). It over-maps by align and trims the
// unaligned head and tail, so the result costs no extra address space.
// The returned release function unmaps the range.
func Reserve(length, align uintptr) (uintptr, func() error, error) {
	checkArgs(length, align)

	span := length + align
	p, err := unix.MmapPtr(-1, 0, nil, span, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, nil, err
	}
	base := uintptr(p)
	aligned := alignUp(base, align)

	if head := aligned - base; head != 0 {
		if err := unix.MunmapPtr(p, head); err != nil {
			_ = unix.MunmapPtr(p, span)
			return 0, nil, err
		}
	}
	if tail := base + span - (aligned + length); tail != 0 {
		if err := unix.MunmapPtr(unsafe.Pointer(aligned+length), tail); err != nil { //nolint:govet // PROT_NONE mapping, not Go memory
			_ = unix.MunmapPtr(unsafe.Pointer(aligned), length+tail)
			return 0, nil, err
		}
	}

	release := func() error {
		return unix.MunmapPtr(unsafe.Pointer(aligned), length) //nolint:govet // PROT_NONE mapping, not Go memory
	}
	return aligned, release, nil
}
