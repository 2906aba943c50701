package mocks

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/user/vmemplay/pkg/ports"
)

// Engine is a mock implementation of ports.MediaEngine.
//
// Play starts a decoder goroutine that drives the installed callbacks,
// stamping each frame's first 8 bytes with its little-endian index. It
// produces Frames frames (forever when Frames is 0) and then reports
// StateEnded.
type Engine struct {
	Frames   int
	Interval time.Duration

	SetVideoFormatFunc func(format ports.VideoFormat) error
	SetMediaFunc       func(url string) error
	PlayFunc           func() error

	mu       sync.Mutex
	format   ports.VideoFormat
	cb       ports.VideoCallbacks
	media    string
	state    ports.State
	stopCh   chan struct{}
	done     chan struct{}
	calls    []string
	produced int
	closed   bool
}

// NewEngine creates a mock engine that produces frames frames per Play.
func NewEngine(frames int) *Engine {
	return &Engine{Frames: frames, state: ports.StateStopped}
}

func (m *Engine) SetVideoFormat(format ports.VideoFormat) error {
	m.record("SetVideoFormat")
	if m.SetVideoFormatFunc != nil {
		return m.SetVideoFormatFunc(format)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.format = format
	return nil
}

func (m *Engine) SetVideoCallbacks(cb ports.VideoCallbacks) {
	m.record("SetVideoCallbacks")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

func (m *Engine) SetMedia(url string) error {
	m.record("SetMedia")
	if m.SetMediaFunc != nil {
		return m.SetMediaFunc(url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = url
	return nil
}

func (m *Engine) Play() error {
	m.record("Play")
	if m.PlayFunc != nil {
		if err := m.PlayFunc(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("mock engine: closed")
	}
	if m.cb.Lock == nil || m.cb.Unlock == nil {
		return errors.New("mock engine: callbacks not set")
	}
	if m.done != nil {
		return nil
	}
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	m.state = ports.StatePlaying
	go m.decode(m.cb, m.stopCh, m.done)
	return nil
}

func (m *Engine) decode(cb ports.VideoCallbacks, stop, done chan struct{}) {
	defer close(done)

	for i := 0; m.Frames == 0 || i < m.Frames; i++ {
		select {
		case <-stop:
			return
		default:
		}

		buf := cb.Lock()
		if len(buf) >= 8 {
			binary.LittleEndian.PutUint64(buf, uint64(i))
		}
		cb.Unlock()
		if cb.Display != nil {
			cb.Display()
		}

		m.mu.Lock()
		m.produced++
		m.mu.Unlock()

		if m.Interval > 0 {
			select {
			case <-stop:
				return
			case <-time.After(m.Interval):
			}
		}
	}

	m.mu.Lock()
	m.state = ports.StateEnded
	m.mu.Unlock()
}

func (m *Engine) Pause() error {
	m.record("Pause")
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case ports.StatePlaying:
		m.state = ports.StatePaused
	case ports.StatePaused:
		m.state = ports.StatePlaying
	}
	return nil
}

// Stop halts the decoder goroutine and waits for it to exit.
func (m *Engine) Stop() error {
	m.record("Stop")
	m.mu.Lock()
	stop, done := m.stopCh, m.done
	m.stopCh, m.done = nil, nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	m.mu.Lock()
	m.state = ports.StateStopped
	m.mu.Unlock()
	return nil
}

func (m *Engine) State() ports.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Engine) Close() error {
	m.record("Close")
	if err := m.Stop(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetState forces the reported state.
func (m *Engine) SetState(s ports.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Format returns the configured video format.
func (m *Engine) Format() ports.VideoFormat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// Media returns the last media URL set.
func (m *Engine) Media() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media
}

// Produced returns the number of frames pushed through the callbacks.
func (m *Engine) Produced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.produced
}

// Calls returns the method call log.
func (m *Engine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Engine) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

var _ ports.MediaEngine = (*Engine)(nil)

// ControlEngine is an Engine that also implements the optional
// timeline and metadata interfaces.
type ControlEngine struct {
	*Engine

	LengthValue time.Duration
	FPSValue    float64
	MetaValues  map[ports.MetaKey]string

	// SetTimeFunc runs before a seek is applied.
	SetTimeFunc func(t time.Duration) error

	mu  sync.Mutex
	pos time.Duration
}

// NewControlEngine wraps a mock Engine producing frames frames.
func NewControlEngine(frames int, length time.Duration) *ControlEngine {
	return &ControlEngine{
		Engine:      NewEngine(frames),
		LengthValue: length,
		FPSValue:    25,
		MetaValues:  map[ports.MetaKey]string{},
	}
}

func (m *ControlEngine) Length() time.Duration { return m.LengthValue }

func (m *ControlEngine) Time() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *ControlEngine) SetTime(t time.Duration) error {
	if t < 0 || t > m.LengthValue {
		return errors.New("mock engine: time out of range")
	}
	m.record("SetTime")
	if m.SetTimeFunc != nil {
		if err := m.SetTimeFunc(t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = t
	return nil
}

func (m *ControlEngine) Position() float64 {
	if m.LengthValue == 0 {
		return 0
	}
	return float64(m.Time()) / float64(m.LengthValue)
}

func (m *ControlEngine) SetPosition(pos float64) error {
	return m.SetTime(time.Duration(pos * float64(m.LengthValue)))
}

func (m *ControlEngine) FPS() float64     { return m.FPSValue }
func (m *ControlEngine) IsSeekable() bool { return m.LengthValue > 0 }
func (m *ControlEngine) CanPause() bool   { return true }

func (m *ControlEngine) Meta(key ports.MetaKey) (string, error) {
	return m.MetaValues[key], nil
}

var (
	_ ports.MediaController = (*ControlEngine)(nil)
	_ ports.MetadataReader  = (*ControlEngine)(nil)
)
