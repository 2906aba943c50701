//go:build linux || darwin || freebsd || netbsd || openbsd

package framequeue

import (
	"golang.org/x/sys/unix"
)

// MmapAllocator backs each slot with an anonymous private mapping.
// Slots live outside the Go heap, so large frame rings do not inflate GC work.
type MmapAllocator struct{}

// NewMmapAllocator returns the mmap-backed allocator.
func NewMmapAllocator() Allocator {
	return MmapAllocator{}
}

// Alloc maps n bytes of anonymous read/write memory.
func (MmapAllocator) Alloc(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Free unmaps a buffer returned by Alloc.
func (MmapAllocator) Free(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Munmap(buf)
}

var _ Allocator = MmapAllocator{}
