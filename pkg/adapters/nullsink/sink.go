// Package nullsink provides a frame sink that discards frames.
package nullsink

import (
	"sync/atomic"

	"github.com/user/vmemplay/pkg/ports"
)

// Sink counts frames and bytes and discards them. Used for benchmarking
// the decode path and for headless runs.
type Sink struct {
	frames atomic.Int64
	bytes  atomic.Int64
}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Begin(ports.VideoFormat) error {
	s.frames.Store(0)
	s.bytes.Store(0)
	return nil
}

func (s *Sink) WriteFrame(f ports.Frame) error {
	s.frames.Add(1)
	s.bytes.Add(int64(len(f.Pix)))
	return nil
}

func (s *Sink) End() error {
	return nil
}

// Frames returns the number of frames written since Begin.
func (s *Sink) Frames() int64 {
	return s.frames.Load()
}

// Bytes returns the number of pixel bytes written since Begin.
func (s *Sink) Bytes() int64 {
	return s.bytes.Load()
}

var _ ports.FrameSink = (*Sink)(nil)
