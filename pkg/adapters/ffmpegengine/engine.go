// Package ffmpegengine implements ports.MediaEngine on top of an ffmpeg
// subprocess that writes raw RGBA frames to a pipe.
package ffmpegengine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/vmemplay/pkg/ports"
)

// Options configures the engine.
type Options struct {
	FFmpegPath  string            // Empty searches with FindFFmpeg
	InputFormat string            // Passed as -f before -i, e.g. "lavfi"
	Realtime    bool              // Read input at its native rate (-re)
	Prober      ports.MediaProber // Optional, supplies length, fps and title for local files
	Logger      ports.Logger
}

// Engine decodes media by running ffmpeg and reading each frame from its
// stdout straight into the slot returned by the Lock callback.
type Engine struct {
	opts   Options
	logger ports.Logger

	// ctrl serialises Play, Stop and SetTime so at most one decoder run
	// exists at a time. The decoder goroutine never takes it.
	ctrl sync.Mutex

	mu       sync.Mutex
	format   ports.VideoFormat
	cb       ports.VideoCallbacks
	media    string
	info     *ports.MediaInfo
	state    ports.State
	closed   bool
	run      *decodeRun
	offset   time.Duration
	paused   bool
	resumeCh chan struct{}

	frames atomic.Int64 // frames delivered since offset
}

type decodeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an ffmpeg engine.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		opts:   opts,
		logger: log.WithComponent("ffmpeg"),
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

// SetMedia selects the input. Local files are probed when a prober is set.
func (e *Engine) SetMedia(url string) error {
	var info *ports.MediaInfo
	if e.opts.Prober != nil && e.opts.InputFormat == "" {
		if _, err := os.Stat(url); err == nil {
			probed, err := e.opts.Prober.Probe(url)
			if err != nil {
				e.logger.Warn("Could not probe %s: %s", url, err)
			} else {
				info = probed
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.media = url
	e.info = info
	e.offset = 0
	e.frames.Store(0)
	return nil
}

// Play starts ffmpeg from the current offset.
func (e *Engine) Play() error {
	e.ctrl.Lock()
	defer e.ctrl.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.run != nil {
		return nil
	}
	if e.media == "" || e.cb.Lock == nil || e.cb.Unlock == nil || e.format.Width == 0 {
		return ErrNotConfigured
	}
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	path, err := FindFFmpeg(e.opts.FFmpegPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, path, BuildArgs(e.media, e.opts.InputFormat, e.format, e.offset, e.opts.Realtime)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	run := &decodeRun{cancel: cancel, done: make(chan struct{})}
	e.run = run
	e.state = ports.StateOpening
	e.paused = false
	e.frames.Store(0)
	e.logger.Debug("Started ffmpeg for %s at %s", e.media, e.offset)

	go e.decode(ctx, run, cmd, stdout, &stderr, e.cb, e.format.FrameSize())
	return nil
}

// decode is the decoder goroutine. Each iteration waits until frame data
// is available, then hands one frame through Lock/Unlock.
func (e *Engine) decode(ctx context.Context, run *decodeRun, cmd *exec.Cmd, stdout io.Reader, stderr *bytes.Buffer, cb ports.VideoCallbacks, frameSize int) {
	defer close(run.done)

	r := bufio.NewReaderSize(stdout, frameSize)
	var readErr error
	for {
		if !e.waitUnpaused(ctx) {
			break
		}
		// Peek first so end of stream is detected without taking a slot.
		if _, err := r.Peek(1); err != nil {
			readErr = err
			break
		}

		buf := cb.Lock()
		if len(buf) < frameSize {
			cb.Unlock()
			readErr = errors.New("frame slot smaller than frame")
			break
		}
		// Every Lock is paired with one Unlock, so a short read on cancel or
		// ffmpeg exit still publishes the partly filled slot. Stop wakes the
		// consumer through the queue; a seek leaves at most one torn frame.
		_, err := io.ReadFull(r, buf[:frameSize])
		cb.Unlock()
		if err != nil {
			readErr = err
			break
		}
		if cb.Display != nil {
			cb.Display()
		}

		if e.frames.Add(1) == 1 {
			e.setState(ports.StatePlaying, ports.StateOpening)
		}
	}

	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		// Stopped or seeking; the caller sets the state.
	case readErr == io.EOF && waitErr == nil:
		e.setState(ports.StateEnded, ports.StateOpening, ports.StatePlaying, ports.StatePaused)
		e.logger.Debug("End of stream after %d frames", e.frames.Load())
	default:
		e.setState(ports.StateError, ports.StateOpening, ports.StatePlaying, ports.StatePaused)
		e.logger.Error("ffmpeg failed: %s", firstLine(stderr.String(), waitErr, readErr))
	}
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

// setState moves to s only from one of the listed states.
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

// Pause toggles between paused and playing. While paused the decoder
// stops reading and ffmpeg blocks on the full pipe.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run == nil {
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

// Stop kills ffmpeg and waits for the decoder goroutine. The decoder may be
// blocked in Lock, so callers must wake the frame queue first.
func (e *Engine) Stop() error {
	e.ctrl.Lock()
	defer e.ctrl.Unlock()
	e.stopLocked()
	return nil
}

func (e *Engine) stopLocked() {
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
	e.offset = 0
	e.frames.Store(0)
	e.mu.Unlock()
}

func (e *Engine) State() ports.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Close() error {
	e.ctrl.Lock()
	defer e.ctrl.Unlock()
	e.stopLocked()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Length returns the probed duration, or 0 when unknown.
func (e *Engine) Length() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.info == nil {
		return 0
	}
	return e.info.Duration
}

// Time estimates the playback time from the start offset and frames delivered.
func (e *Engine) Time() time.Duration {
	fps := e.FPS()
	e.mu.Lock()
	offset := e.offset
	e.mu.Unlock()
	return offset + time.Duration(float64(e.frames.Load())/fps*float64(time.Second))
}

// SetTime restarts ffmpeg at t. The decoder has to return its current slot
// before the restart completes, so the consumer must keep draining.
// A stopped engine only records the offset.
func (e *Engine) SetTime(t time.Duration) error {
	if t < 0 {
		t = 0
	}

	e.ctrl.Lock()
	defer e.ctrl.Unlock()

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
	defer e.mu.Unlock()
	e.offset = t
	e.frames.Store(0)
	if run == nil || e.closed {
		return nil
	}
	return e.startLocked()
}

func (e *Engine) Position() float64 {
	length := e.Length()
	if length <= 0 {
		return 0
	}
	pos := float64(e.Time()) / float64(length)
	if pos > 1 {
		pos = 1
	}
	return pos
}

func (e *Engine) SetPosition(pos float64) error {
	return e.SetTime(time.Duration(pos * float64(e.Length())))
}

// FPS returns the probed frame rate, 25 when unknown.
func (e *Engine) FPS() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.info == nil || e.info.FPS <= 0 {
		return 25
	}
	return e.info.FPS
}

func (e *Engine) IsSeekable() bool {
	return e.Length() > 0
}

func (e *Engine) CanPause() bool {
	return true
}

// Meta returns Title and URL; other keys are empty.
func (e *Engine) Meta(key ports.MetaKey) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case ports.MetaURL:
		return e.media, nil
	case ports.MetaTitle:
		if e.info != nil {
			return e.info.Title, nil
		}
	}
	return "", nil
}

// BuildArgs returns the ffmpeg arguments that decode url into raw frames of
// the given format, letterboxed to the exact frame size.
func BuildArgs(url, inputFormat string, format ports.VideoFormat, offset time.Duration, realtime bool) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if realtime {
		args = append(args, "-re")
	}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64))
	}
	if inputFormat != "" {
		args = append(args, "-f", inputFormat)
	}
	w, h := format.Width, format.Height
	args = append(args,
		"-i", url,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)
	return args
}

func firstLine(stderr string, errs ...error) string {
	if i := strings.IndexByte(stderr, '\n'); i > 0 {
		return stderr[:i]
	}
	if stderr != "" {
		return stderr
	}
	for _, err := range errs {
		if err != nil {
			return err.Error()
		}
	}
	return "unknown error"
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
