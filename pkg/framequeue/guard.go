package framequeue

import (
	"image"
)

// ReadGuard is the consumer's claim on the oldest queued frame. While a
// guard is live it owns the queue lock, so the producer cannot overwrite
// the slot. Exactly one of Release or Unlock must be called; further calls
// are no-ops, and both are safe on a nil guard.
type ReadGuard struct {
	q     *Queue
	index int
	seq   uint64
	frame []byte
	done  bool
}

// Frame returns the slot contents: Height rows of Stride bytes, tightly packed.
// The slice must not be used after Release or Unlock.
func (g *ReadGuard) Frame() []byte {
	if g == nil {
		return nil
	}
	return g.frame
}

// Index returns the slot index the frame lives in.
func (g *ReadGuard) Index() int {
	if g == nil {
		return -1
	}
	return g.index
}

// Seq returns the zero-based position of this frame in the consumed stream
// since the queue was created.
func (g *ReadGuard) Seq() uint64 {
	if g == nil {
		return 0
	}
	return g.seq
}

// Image wraps the slot as an RGBA image without copying.
// Returns nil unless the queue uses 4 bytes per pixel.
func (g *ReadGuard) Image() *image.RGBA {
	if g == nil || g.q.bytesPerPixel != 4 {
		return nil
	}
	return &image.RGBA{
		Pix:    g.frame,
		Stride: g.q.Stride(),
		Rect:   image.Rect(0, 0, g.q.width, g.q.height),
	}
}

// Release consumes the frame: the read index advances, the producer is
// signalled and the queue lock is dropped.
func (g *ReadGuard) Release() {
	if g == nil || g.done {
		return
	}
	g.done = true
	g.frame = nil
	g.q.release()
}

// Unlock drops the queue lock without consuming the frame. The same frame
// is returned by the next acquire.
func (g *ReadGuard) Unlock() {
	if g == nil || g.done {
		return
	}
	g.done = true
	g.frame = nil
	g.q.mu.Unlock()
}
