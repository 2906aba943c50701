// Package player couples a media engine to a frame queue and exposes the
// control and consumer API used by the display loop, the CLI and the
// interactive UI.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/ports"
)

var (
	// ErrNoMedia is returned by Play("") before any media was set.
	ErrNoMedia = errors.New("player: no media set")
	// ErrNotSupported is returned for queries the engine does not implement.
	ErrNotSupported = errors.New("player: not supported by engine")
	// ErrClosed is returned by control calls after Close.
	ErrClosed = errors.New("player: closed")
)

// Options configures a Player.
type Options struct {
	Width     int
	Height    int
	Capacity  int                  // Frame slots; 0 uses framequeue.DefaultCapacity
	Allocator framequeue.Allocator // nil uses the heap
	Logger    ports.Logger

	// OnDisplay is called from the decoder goroutine after each published frame.
	OnDisplay func()
}

// Player owns one engine and one frame queue.
//
// Control calls (Play, Stop, Pause, Close) are serialised. Consumer calls
// (AcquireFrame, ReleaseFrame, WaitFrame and the guard variants) are meant
// for a single display goroutine.
type Player struct {
	engine ports.MediaEngine
	queue  *framequeue.Queue
	format ports.VideoFormat
	logger ports.Logger

	ctrl   sync.Mutex
	closed bool

	infoMu  sync.RWMutex
	url     string
	session string
	started time.Time

	held atomic.Pointer[framequeue.ReadGuard]
}

// New builds the frame queue, configures the engine's output format and
// installs the queue as the engine's frame callbacks.
func New(engine ports.MediaEngine, opts Options) (*Player, error) {
	if engine == nil {
		return nil, errors.New("player: engine is required")
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}

	format := ports.VideoFormat{
		Chroma: ports.ChromaRGBA,
		Width:  opts.Width,
		Height: opts.Height,
		Pitch:  opts.Width * framequeue.DefaultBytesPerPixel,
	}

	qopts := []framequeue.Option{framequeue.WithLogger(log.WithComponent("queue"))}
	if opts.Capacity != 0 {
		qopts = append(qopts, framequeue.WithCapacity(opts.Capacity))
	}
	if opts.Allocator != nil {
		qopts = append(qopts, framequeue.WithAllocator(opts.Allocator))
	}
	q, err := framequeue.New(opts.Width, opts.Height, qopts...)
	if err != nil {
		return nil, fmt.Errorf("create frame queue: %w", err)
	}

	if err := format.Validate(); err != nil {
		q.Close()
		return nil, fmt.Errorf("video format: %w", err)
	}
	if err := engine.SetVideoFormat(format); err != nil {
		q.Close()
		return nil, fmt.Errorf("set video format: %w", err)
	}

	p := &Player{
		engine: engine,
		queue:  q,
		format: format,
		logger: log.WithComponent("player"),
	}
	engine.SetVideoCallbacks(ports.VideoCallbacks{
		Lock:    q.AcquireWriteSlot,
		Unlock:  q.PublishWriteSlot,
		Display: opts.OnDisplay,
	})

	p.logger.Debug("Player ready: %dx%d, %d slots", format.Width, format.Height, q.Capacity())
	return p, nil
}

// Play stops any current playback, selects url (or the previous media when
// url is empty), resets the queue and starts the engine.
func (p *Player) Play(url string) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	if p.closed {
		return ErrClosed
	}
	if err := p.stopLocked(); err != nil {
		return fmt.Errorf("stop before play: %w", err)
	}

	p.infoMu.RLock()
	current := p.url
	p.infoMu.RUnlock()

	if url != "" {
		if err := p.engine.SetMedia(url); err != nil {
			return fmt.Errorf("set media: %w", err)
		}
		current = url
	} else if current == "" {
		return ErrNoMedia
	}

	// The reset must complete before the decoder can call Lock again.
	p.queue.ResetForPlay()

	session := uuid.NewString()
	p.infoMu.Lock()
	p.url = current
	p.session = session
	p.started = time.Now()
	p.infoMu.Unlock()

	if err := p.engine.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	p.logger.Info("Playing %s (session %s)", current, session)
	return nil
}

// Stop wakes every queue waiter and then stops the engine. It returns once
// the decoder goroutine has exited.
//
// A frame held by the consumer blocks the decoder on the queue lock, so
// Stop completes only after that frame is released.
func (p *Player) Stop() error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	if p.closed {
		return ErrClosed
	}
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	p.queue.RequestStop()
	if err := p.engine.Stop(); err != nil {
		return fmt.Errorf("stop engine: %w", err)
	}
	p.logger.Debug("Stopped")
	return nil
}

// Pause toggles pause on the engine.
func (p *Player) Pause() error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	if p.closed {
		return ErrClosed
	}
	if c, ok := p.engine.(ports.MediaController); ok && !c.CanPause() {
		return ErrNotSupported
	}
	return p.engine.Pause()
}

// State returns the engine state unchanged.
func (p *Player) State() ports.State {
	return p.engine.State()
}

// AcquireFrame returns the oldest queued frame without blocking. While a
// frame is held the decoder cannot write; the caller must call
// ReleaseFrame. Acquiring again before releasing returns the same frame.
func (p *Player) AcquireFrame() ([]byte, bool) {
	if g := p.held.Load(); g != nil {
		return g.Frame(), true
	}
	g, ok := p.queue.AcquireReadSlot()
	if !ok {
		return nil, false
	}
	p.held.Store(g)
	return g.Frame(), true
}

// WaitFrame blocks until a frame is queued. It returns
// framequeue.ErrStopped when playback is stopped.
func (p *Player) WaitFrame(ctx context.Context) ([]byte, error) {
	if g := p.held.Load(); g != nil {
		return g.Frame(), nil
	}
	g, err := p.queue.WaitReadSlot(ctx)
	if err != nil {
		return nil, err
	}
	p.held.Store(g)
	return g.Frame(), nil
}

// ReleaseFrame consumes the held frame. It does nothing if no frame is held.
func (p *Player) ReleaseFrame() {
	if g := p.held.Swap(nil); g != nil {
		g.Release()
	}
}

// HasFrame reports whether a frame is queued. It never blocks.
func (p *Player) HasFrame() bool {
	return p.held.Load() != nil || p.queue.Pending() > 0
}

// AcquireGuard is AcquireFrame for callers that manage the guard themselves.
func (p *Player) AcquireGuard() (*framequeue.ReadGuard, bool) {
	return p.queue.AcquireReadSlot()
}

// WaitGuard is WaitFrame for callers that manage the guard themselves.
func (p *Player) WaitGuard(ctx context.Context) (*framequeue.ReadGuard, error) {
	return p.queue.WaitReadSlot(ctx)
}

// Format returns the frame format the engine was configured with.
func (p *Player) Format() ports.VideoFormat {
	return p.format
}

// FrameSize returns width, height and pitch in bytes.
func (p *Player) FrameSize() (width, height, pitch int) {
	return p.format.Width, p.format.Height, p.format.Pitch
}

// Session returns the id of the current play cycle, empty before the first Play.
func (p *Player) Session() string {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.session
}

// Media returns the current media URL.
func (p *Player) Media() string {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.url
}

// Started returns when the current play cycle began.
func (p *Player) Started() time.Time {
	p.infoMu.RLock()
	defer p.infoMu.RUnlock()
	return p.started
}

// Snapshot returns the queue counters. It blocks while a frame is held and
// must not be called from the consumer goroutine in that window.
func (p *Player) Snapshot() framequeue.Snapshot {
	return p.queue.Snapshot()
}

// Pending returns the number of queued frames without blocking.
func (p *Player) Pending() int {
	return p.queue.Pending()
}

// Close releases any held frame, stops playback and frees the engine and
// the queue. Safe to call more than once.
func (p *Player) Close() error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.ReleaseFrame()
	var errs []error
	if err := p.stopLocked(); err != nil {
		errs = append(errs, err)
	}
	if err := p.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close engine: %w", err))
	}
	if err := p.queue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close queue: %w", err))
	}
	return errors.Join(errs...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithComponent(string) ports.Logger { return n }
