package mocks

import (
	"encoding/binary"
	"sync"

	"github.com/user/vmemplay/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink. It records the
// sequence number and the stamp in the first 8 bytes of every frame.
type FrameSink struct {
	BeginFunc      func(format ports.VideoFormat) error
	WriteFrameFunc func(f ports.Frame) error
	EndFunc        func() error

	mu     sync.Mutex
	format ports.VideoFormat
	seqs   []uint64
	stamps []uint64
	began  bool
	ended  bool
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink() *FrameSink {
	return &FrameSink{}
}

func (m *FrameSink) Begin(format ports.VideoFormat) error {
	if m.BeginFunc != nil {
		if err := m.BeginFunc(format); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.format = format
	m.began = true
	return nil
}

func (m *FrameSink) WriteFrame(f ports.Frame) error {
	if m.WriteFrameFunc != nil {
		if err := m.WriteFrameFunc(f); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs = append(m.seqs, f.Seq)
	if len(f.Pix) >= 8 {
		m.stamps = append(m.stamps, binary.LittleEndian.Uint64(f.Pix))
	}
	return nil
}

func (m *FrameSink) End() error {
	if m.EndFunc != nil {
		if err := m.EndFunc(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = true
	return nil
}

// Seqs returns the sequence numbers written so far.
func (m *FrameSink) Seqs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.seqs...)
}

// Stamps returns the frame stamps written so far.
func (m *FrameSink) Stamps() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.stamps...)
}

// Count returns the number of frames written.
func (m *FrameSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seqs)
}

// Began reports whether Begin succeeded.
func (m *FrameSink) Began() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.began
}

// Ended reports whether End succeeded.
func (m *FrameSink) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// Format returns the format passed to Begin.
func (m *FrameSink) Format() ports.VideoFormat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

var _ ports.FrameSink = (*FrameSink)(nil)
