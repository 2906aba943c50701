//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package framequeue

// NewMmapAllocator falls back to the heap where anonymous mappings are unavailable.
func NewMmapAllocator() Allocator {
	return HeapAllocator{}
}
