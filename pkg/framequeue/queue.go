package framequeue

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/user/vmemplay/pkg/ports"
)

const (
	// MinCapacity is the smallest ring that cannot livelock: the producer
	// needs one free slot while the consumer holds another.
	MinCapacity = 3

	// DefaultCapacity is used when no capacity option is given.
	DefaultCapacity = 3

	// DefaultBytesPerPixel matches the RGBA layout engines are configured with.
	DefaultBytesPerPixel = 4
)

// Option configures a Queue.
type Option func(*options)

type options struct {
	capacity      int
	bytesPerPixel int
	allocator     Allocator
	logger        ports.Logger
}

// WithCapacity sets the number of slots in the ring.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithBytesPerPixel sets the pixel size used to compute the slot size.
func WithBytesPerPixel(n int) Option {
	return func(o *options) {
		o.bytesPerPixel = n
	}
}

// WithAllocator sets the allocator used for slot memory.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l ports.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Queue is a bounded ring of pre-allocated frame slots shared by one
// producer (the decoder callback) and one consumer (the display loop).
//
// Every field below mu is guarded by mu. stop is atomic so RequestStop can
// set it without owning the lock.
type Queue struct {
	width         int
	height        int
	bytesPerPixel int
	capacity      int
	frameSize     int
	allocator     Allocator
	logger        ports.Logger

	stop    atomic.Bool
	pending atomic.Int64 // mirrors queued for lock-free reads

	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	slots     [][]byte
	writeIdx  int
	readIdx   int
	queued    int
	closed    bool
	published uint64
	consumed  uint64
	resets    uint64
}

// New allocates a queue of capacity slots, each width*height*bytesPerPixel bytes.
// On failure no queue is returned and every slot already allocated is freed.
func New(width, height int, opts ...Option) (*Queue, error) {
	o := options{
		capacity:      DefaultCapacity,
		bytesPerPixel: DefaultBytesPerPixel,
		allocator:     HeapAllocator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = nopLogger{}
	}
	if o.allocator == nil {
		o.allocator = HeapAllocator{}
	}

	if width <= 0 || height <= 0 || o.bytesPerPixel <= 0 {
		return nil, constructionErr("validate dimensions", KindInvalidArgument, ErrInvalidDimensions)
	}
	if o.capacity < MinCapacity {
		return nil, constructionErr("validate capacity", KindInvalidArgument, ErrCapacityTooSmall)
	}
	if width > math.MaxInt/height || width*height > math.MaxInt/o.bytesPerPixel {
		return nil, constructionErr("compute frame size", KindOutOfResources, ErrFrameTooLarge)
	}
	frameSize := width * height * o.bytesPerPixel

	q := &Queue{
		width:         width,
		height:        height,
		bytesPerPixel: o.bytesPerPixel,
		capacity:      o.capacity,
		frameSize:     frameSize,
		allocator:     o.allocator,
		logger:        o.logger,
		slots:         make([][]byte, 0, o.capacity),
	}
	for i := 0; i < o.capacity; i++ {
		buf, err := o.allocator.Alloc(frameSize)
		if err == nil && len(buf) != frameSize {
			o.allocator.Free(buf)
			err = ErrFrameTooLarge
		}
		if err != nil {
			q.freeSlots()
			kind := KindFromErrno(err)
			if kind == KindUnknown {
				kind = KindOutOfMemory
			}
			return nil, constructionErr("allocate slot", kind, err)
		}
		q.slots = append(q.slots, buf)
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)

	q.logger.Debug("Frame queue created: %d slots of %d bytes", q.capacity, q.frameSize)
	return q, nil
}

func (q *Queue) freeSlots() {
	for i, buf := range q.slots {
		if err := q.allocator.Free(buf); err != nil {
			q.logger.Warn("Failed to free slot %d: %s", i, err)
		}
	}
	q.slots = nil
}

// AcquireWriteSlot returns the slot the producer should decode into.
// It blocks while the ring is full and no stop has been requested. After a
// stop it returns the current write slot even if the consumer has not
// drained it. Returns nil once the queue is closed.
func (q *Queue) AcquireWriteSlot() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.queued == q.capacity && !q.stop.Load() {
		q.logger.Debug("Queue full, producer waiting (write %d, read %d)", q.writeIdx, q.readIdx)
		q.notFull.Wait()
	}
	if q.closed {
		return nil
	}
	return q.slots[q.writeIdx]
}

// PublishWriteSlot makes the slot returned by AcquireWriteSlot visible to the consumer.
func (q *Queue) PublishWriteSlot() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.writeIdx = (q.writeIdx + 1) % q.capacity
	// A publish after stop on a full ring overwrites; the count must not overflow.
	if q.queued < q.capacity {
		q.queued++
	}
	q.pending.Store(int64(q.queued))
	q.published++
	q.notEmpty.Signal()
}

// AcquireReadSlot returns the oldest published frame without blocking.
// When a frame is available the returned guard holds the queue lock until
// Release or Unlock is called; the producer cannot touch any slot meanwhile.
// When no frame is available it returns (nil, false) with the lock released.
func (q *Queue) AcquireReadSlot() (*ReadGuard, bool) {
	q.mu.Lock()
	if q.queued == 0 || q.closed {
		q.mu.Unlock()
		return nil, false
	}
	return q.guard(), true
}

// WaitReadSlot blocks until a frame is available, a stop is requested, the
// queue is closed or ctx is done. On success the guard holds the queue lock.
func (q *Queue) WaitReadSlot(ctx context.Context) (*ReadGuard, error) {
	wake := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer wake()

	q.mu.Lock()
	for {
		switch {
		case q.closed:
			q.mu.Unlock()
			return nil, ErrClosed
		case q.stop.Load():
			q.mu.Unlock()
			return nil, ErrStopped
		case ctx.Err() != nil:
			q.mu.Unlock()
			return nil, ctx.Err()
		case q.queued > 0:
			return q.guard(), nil
		}
		q.notEmpty.Wait()
	}
}

// guard must be called with mu held and queued > 0.
func (q *Queue) guard() *ReadGuard {
	return &ReadGuard{
		q:     q,
		index: q.readIdx,
		seq:   q.consumed,
		frame: q.slots[q.readIdx],
	}
}

// release advances the read side. Called with mu held by a guard.
func (q *Queue) release() {
	if q.queued > 0 {
		q.readIdx = (q.readIdx + 1) % q.capacity
		q.queued--
		q.pending.Store(int64(q.queued))
		q.consumed++
		q.notFull.Signal()
	}
	q.mu.Unlock()
}

// RequestStop makes every blocked producer and consumer return.
//
// It never blocks. When the lock is free the broadcast is issued under it.
// When someone holds it (a consumer guard, or a waiter between its
// predicate check and Wait) the broadcast is issued right away and again
// from a goroutine once the lock frees up, so a waiter that had not yet
// parked still observes the flag.
func (q *Queue) RequestStop() {
	q.stop.Store(true)

	if q.mu.TryLock() {
		q.notFull.Broadcast()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
		q.logger.Debug("Stop requested, waiters signalled")
		return
	}

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	go func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	}()
	q.logger.Debug("Stop requested while queue busy, signalling without lock")
}

// Stopped reports whether a stop has been requested since the last reset.
func (q *Queue) Stopped() bool {
	return q.stop.Load()
}

// ResetForPlay empties the ring and clears the stop flag. It must complete
// before the decoder is started again.
func (q *Queue) ResetForPlay() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stop.Store(false)
	q.writeIdx = 0
	q.readIdx = 0
	q.queued = 0
	q.pending.Store(0)
	q.resets++
}

// Close wakes all waiters and frees the slots. Safe to call more than once.
func (q *Queue) Close() error {
	q.stop.Store(true)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.queued = 0
	q.pending.Store(0)
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	q.freeSlots()
	q.logger.Debug("Frame queue closed")
	return nil
}

// Pending returns the number of queued frames without taking the lock.
// The value may be stale by the time the caller acts on it.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Capacity returns the number of slots.
func (q *Queue) Capacity() int { return q.capacity }

// FrameSize returns the size of each slot in bytes.
func (q *Queue) FrameSize() int { return q.frameSize }

// Width returns the frame width in pixels.
func (q *Queue) Width() int { return q.width }

// Height returns the frame height in pixels.
func (q *Queue) Height() int { return q.height }

// Stride returns the number of bytes per row.
func (q *Queue) Stride() int { return q.width * q.bytesPerPixel }

// BytesPerPixel returns the pixel size in bytes.
func (q *Queue) BytesPerPixel() int { return q.bytesPerPixel }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithComponent(string) ports.Logger { return n }
