// Package display runs the consumer side of playback: it takes frames out
// of the frame queue and hands them to a sink while holding the slot.
package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/ports"
)

// Mode selects how the loop waits for frames.
type Mode int

const (
	// ModeWait blocks until a frame is published or playback stops.
	ModeWait Mode = iota
	// ModePoll checks for a frame once per tick, like a display refresh.
	ModePoll
)

// ParseMode maps "wait" and "poll" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "wait":
		return ModeWait, nil
	case "poll":
		return ModePoll, nil
	default:
		return 0, fmt.Errorf("display: unknown mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModePoll {
		return "poll"
	}
	return "wait"
}

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 40 * time.Millisecond

// FrameSource is the consumer side of a frame queue. *player.Player
// implements it.
type FrameSource interface {
	AcquireGuard() (*framequeue.ReadGuard, bool)
	WaitGuard(ctx context.Context) (*framequeue.ReadGuard, error)
	Format() ports.VideoFormat
}

// Options configures the loop.
type Options struct {
	Mode      Mode
	Interval  time.Duration // Poll interval; 0 uses DefaultInterval
	MaxFrames int           // Stop after this many frames; 0 means no limit
	MaxErrors int           // Sink errors tolerated before aborting
	Logger    ports.Logger
}

// Stats summarises one run of the loop.
type Stats struct {
	Frames     int
	EmptyTicks int
	Errors     int
	LastSeq    uint64
	Elapsed    time.Duration
}

// Loop moves frames from a FrameSource into a FrameSink.
type Loop struct {
	src    FrameSource
	sink   ports.FrameSink
	opts   Options
	logger ports.Logger

	frames atomic.Int64
}

// New creates a display loop.
func New(src FrameSource, sink ports.FrameSink, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Loop{
		src:    src,
		sink:   sink,
		opts:   opts,
		logger: log.WithComponent("display"),
	}
}

// Frames returns the number of frames displayed so far. Safe to call
// from any goroutine while Run is active.
func (l *Loop) Frames() int64 {
	return l.frames.Load()
}

// Run consumes frames until ctx is done or MaxFrames is reached. In
// ModeWait it also returns when playback is stopped or the queue is
// closed. Cancellation and stop are not errors; a sink error past
// MaxErrors is.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	start := time.Now()
	defer func() { l.logger.Debug("Display loop finished: %d frames, %d empty ticks", stats.Frames, stats.EmptyTicks) }()

	l.logger.Debug("Display loop started in %s mode", l.opts.Mode)

	var err error
	switch l.opts.Mode {
	case ModePoll:
		err = l.poll(ctx, &stats, start)
	default:
		err = l.wait(ctx, &stats, start)
	}
	stats.Elapsed = time.Since(start)
	return stats, err
}

func (l *Loop) wait(ctx context.Context, stats *Stats, start time.Time) error {
	for !l.done(stats) {
		g, err := l.src.WaitGuard(ctx)
		switch {
		case err == nil:
		case errors.Is(err, framequeue.ErrStopped), errors.Is(err, framequeue.ErrClosed):
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
		if err := l.show(g, stats, start); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) poll(ctx context.Context, stats *Stats, start time.Time) error {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for !l.done(stats) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		g, ok := l.src.AcquireGuard()
		if !ok {
			stats.EmptyTicks++
			continue
		}
		if err := l.show(g, stats, start); err != nil {
			return err
		}
	}
	return nil
}

// show writes the guarded frame to the sink and consumes it.
func (l *Loop) show(g *framequeue.ReadGuard, stats *Stats, start time.Time) error {
	format := l.src.Format()
	frame := ports.Frame{
		Seq:    g.Seq(),
		Pix:    g.Frame()[:format.FrameSize()],
		Width:  format.Width,
		Height: format.Height,
		Stride: format.Pitch,
		At:     time.Since(start),
	}
	err := l.sink.WriteFrame(frame)
	g.Release()

	if err != nil {
		stats.Errors++
		l.logger.Warn("Sink rejected frame %d: %s", frame.Seq, err)
		if stats.Errors > l.opts.MaxErrors {
			return fmt.Errorf("write frame %d: %w", frame.Seq, err)
		}
		return nil
	}
	stats.Frames++
	stats.LastSeq = frame.Seq
	l.frames.Add(1)
	return nil
}

func (l *Loop) done(stats *Stats) bool {
	return l.opts.MaxFrames > 0 && stats.Frames >= l.opts.MaxFrames
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithComponent(string) ports.Logger { return n }
