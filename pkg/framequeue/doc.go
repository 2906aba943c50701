// Package framequeue implements the bounded frame ring that sits between a
// media engine's decoder callback and a display loop.
//
// The producer side is two calls made from the decoder thread for every
// frame: AcquireWriteSlot hands out the buffer to decode into (blocking
// while the ring is full) and PublishWriteSlot makes it visible. The
// consumer side is AcquireReadSlot (non-blocking) or WaitReadSlot
// (blocking), both of which return a ReadGuard that keeps the queue lock
// held until the frame is released:
//
//	g, ok := q.AcquireReadSlot()
//	if ok {
//		upload(g.Frame())
//		g.Release()
//	}
//
// A consumer that keeps a guard without releasing it stalls the producer;
// after Capacity frames playback deadlocks.
//
// RequestStop is the cancellation path used by the control thread. It
// sets a flag that every wait loop checks as an alternate exit condition
// and wakes all waiters. It does not stop the decoder itself.
package framequeue
