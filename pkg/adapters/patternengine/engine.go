// Package patternengine implements ports.MediaEngine with a synthetic
// source that draws test patterns straight into the frame slots.
package patternengine

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/vmemplay/pkg/ports"
)

var (
	// ErrNotConfigured is returned by Play before format and callbacks are set.
	ErrNotConfigured = errors.New("patternengine: format and callbacks must be set before play")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("patternengine: engine closed")
)

// Options configures the engine.
type Options struct {
	FPS      float64        // Frame rate; 0 uses 25
	Length   time.Duration  // Media length; 0 plays until stopped
	Unpaced  bool           // Deliver frames as fast as the queue accepts them
	Renderer ports.Renderer // Optional, draws the frame counter
	Label    color.Color    // Frame counter color; nil uses white
	Logger   ports.Logger
}

// Engine generates frames at a fixed rate. Seeking only moves the frame
// counter, so it never restarts the decoder goroutine.
type Engine struct {
	opts   Options
	logger ports.Logger

	mu       sync.Mutex
	format   ports.VideoFormat
	cb       ports.VideoCallbacks
	media    string
	pattern  Pattern
	state    ports.State
	closed   bool
	run      *decodeRun
	paused   bool
	resumeCh chan struct{}

	frame atomic.Int64 // next frame number
}

type decodeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a pattern engine.
func New(opts Options) *Engine {
	if opts.FPS <= 0 {
		opts.FPS = 25
	}
	if opts.Label == nil {
		opts.Label = color.White
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		opts:   opts,
		logger: log.WithComponent("pattern"),
		state:  ports.StateStopped,
	}
}

func (e *Engine) SetVideoFormat(format ports.VideoFormat) error {
	if err := format.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.format = format
	return nil
}

func (e *Engine) SetVideoCallbacks(cb ports.VideoCallbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

// SetMedia selects the pattern named by url.
func (e *Engine) SetMedia(url string) error {
	pattern, err := ParsePattern(url)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.media = url
	e.pattern = pattern
	e.frame.Store(0)
	return nil
}

// Play starts the generator goroutine from the current frame.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.run != nil {
		return nil
	}
	if e.cb.Lock == nil || e.cb.Unlock == nil || e.format.Width == 0 {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &decodeRun{cancel: cancel, done: make(chan struct{})}
	e.run = run
	e.state = ports.StatePlaying
	e.paused = false

	var limiter *rate.Limiter
	if !e.opts.Unpaced {
		limiter = rate.NewLimiter(rate.Limit(e.opts.FPS), 1)
	}
	e.logger.Debug("Generating %s at %.2f fps", e.pattern, e.opts.FPS)

	go e.generate(ctx, run, limiter, e.cb, e.format, e.pattern)
	return nil
}

func (e *Engine) generate(ctx context.Context, run *decodeRun, limiter *rate.Limiter, cb ports.VideoCallbacks, format ports.VideoFormat, pattern Pattern) {
	defer close(run.done)

	total := e.totalFrames()
	for {
		if !e.waitUnpaused(ctx) {
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		n := e.frame.Load()
		if total > 0 && n >= total {
			e.setState(ports.StateEnded, ports.StatePlaying, ports.StatePaused)
			e.logger.Debug("End of stream after %d frames", n)
			return
		}

		buf := cb.Lock()
		if len(buf) >= format.FrameSize() {
			drawFrame(buf, format, pattern, n, e.opts.Renderer, e.opts.Label)
		}
		cb.Unlock()
		if cb.Display != nil {
			cb.Display()
		}
		e.frame.CompareAndSwap(n, n+1)

		if ctx.Err() != nil {
			return
		}
	}
}

func (e *Engine) totalFrames() int64 {
	if e.opts.Length <= 0 {
		return 0
	}
	return int64(e.opts.Length.Seconds() * e.opts.FPS)
}

func (e *Engine) waitUnpaused(ctx context.Context) bool {
	e.mu.Lock()
	ch := e.resumeCh
	paused := e.paused
	e.mu.Unlock()

	if !paused || ch == nil {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-ch:
		return true
	}
}

func (e *Engine) setState(s ports.State, from ...ports.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range from {
		if e.state == f {
			e.state = s
			return
		}
	}
}

// Pause toggles between paused and playing.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run == nil || !e.state.Active() {
		return nil
	}
	if e.paused {
		e.paused = false
		close(e.resumeCh)
		e.resumeCh = nil
		e.state = ports.StatePlaying
		return nil
	}
	e.paused = true
	e.resumeCh = make(chan struct{})
	e.state = ports.StatePaused
	return nil
}

// Stop halts the generator and waits for it to exit. A generator blocked
// in Lock only returns once the frame queue has been woken.
func (e *Engine) Stop() error {
	e.mu.Lock()
	run := e.run
	e.run = nil
	if e.paused {
		e.paused = false
		close(e.resumeCh)
		e.resumeCh = nil
	}
	e.mu.Unlock()

	if run != nil {
		run.cancel()
		<-run.done
	}

	e.mu.Lock()
	e.state = ports.StateStopped
	e.mu.Unlock()
	e.frame.Store(0)
	return nil
}

func (e *Engine) State() ports.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *Engine) Length() time.Duration {
	return e.opts.Length
}

func (e *Engine) Time() time.Duration {
	return time.Duration(float64(e.frame.Load()) / e.opts.FPS * float64(time.Second))
}

// SetTime moves the frame counter to t, clamped to the media length.
func (e *Engine) SetTime(t time.Duration) error {
	if t < 0 {
		t = 0
	}
	if e.opts.Length > 0 && t > e.opts.Length {
		t = e.opts.Length
	}
	e.frame.Store(int64(t.Seconds() * e.opts.FPS))
	return nil
}

func (e *Engine) Position() float64 {
	if e.opts.Length <= 0 {
		return 0
	}
	pos := float64(e.Time()) / float64(e.opts.Length)
	if pos > 1 {
		pos = 1
	}
	return pos
}

func (e *Engine) SetPosition(pos float64) error {
	if e.opts.Length <= 0 {
		return nil
	}
	return e.SetTime(time.Duration(pos * float64(e.opts.Length)))
}

func (e *Engine) FPS() float64 {
	return e.opts.FPS
}

func (e *Engine) IsSeekable() bool {
	return e.opts.Length > 0
}

func (e *Engine) CanPause() bool {
	return true
}

// Meta reports the pattern as the title.
func (e *Engine) Meta(key ports.MetaKey) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case ports.MetaTitle:
		return e.pattern.String(), nil
	case ports.MetaURL:
		return e.media, nil
	case ports.MetaDescription:
		return "synthetic test pattern", nil
	case ports.MetaEncodedBy:
		return "patternengine", nil
	}
	return "", nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithComponent(string) ports.Logger { return n }

var (
	_ ports.MediaEngine     = (*Engine)(nil)
	_ ports.MediaController = (*Engine)(nil)
	_ ports.MetadataReader  = (*Engine)(nil)
)
