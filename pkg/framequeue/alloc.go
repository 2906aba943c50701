package framequeue

// Allocator provides the backing memory for frame slots.
type Allocator interface {
	// Alloc returns a zeroed buffer of exactly n bytes.
	Alloc(n int) ([]byte, error)

	// Free returns a buffer obtained from Alloc.
	Free(buf []byte) error
}

// HeapAllocator allocates slots on the Go heap.
type HeapAllocator struct{}

// Alloc returns make([]byte, n).
func (HeapAllocator) Alloc(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// Free is a no-op; the garbage collector reclaims the buffer.
func (HeapAllocator) Free([]byte) error {
	return nil
}

var _ Allocator = HeapAllocator{}
