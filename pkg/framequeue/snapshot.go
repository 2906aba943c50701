package framequeue

// Snapshot is a consistent copy of the queue counters.
type Snapshot struct {
	Capacity  int
	Queued    int
	ReadIdx   int
	WriteIdx  int
	Stopped   bool
	Closed    bool
	Published uint64
	Consumed  uint64
	Resets    uint64
}

// Snapshot reads the counters under the lock. It blocks while a consumer
// guard is held, so it must not be called from the goroutine holding one.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		Capacity:  q.capacity,
		Queued:    q.queued,
		ReadIdx:   q.readIdx,
		WriteIdx:  q.writeIdx,
		Stopped:   q.stop.Load(),
		Closed:    q.closed,
		Published: q.published,
		Consumed:  q.consumed,
		Resets:    q.resets,
	}
}

// Fill returns the fraction of slots holding queued frames.
func (s Snapshot) Fill() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Queued) / float64(s.Capacity)
}
