// Package orchestrator runs one playback session: it starts the engine,
// drives the display loop into a sink and ends the session when playback
// finishes or a limit is reached.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/vmemplay/pkg/display"
	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/ports"
)

// ErrPlaybackFailed is returned when the engine reports StateError.
var ErrPlaybackFailed = errors.New("orchestrator: playback failed")

// Playback is the player surface a session needs. *player.Player
// implements it.
type Playback interface {
	display.FrameSource

	Play(url string) error
	Stop() error
	State() ports.State
	Session() string
	Pending() int
	Snapshot() framequeue.Snapshot
	Meta(name string) (string, error)
	Length() (time.Duration, error)
	FPS() (float64, error)
}

// Config contains all configuration for one session.
type Config struct {
	Media     string
	Duration  time.Duration // Wall-clock limit; 0 plays to the end
	MaxFrames int           // Frame limit; 0 means none
	Display   display.Options

	// WatchInterval is how often the engine state is checked.
	WatchInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Display: display.Options{
			Mode:     display.ModeWait,
			Interval: display.DefaultInterval,
		},
		WatchInterval: 20 * time.Millisecond,
	}
}

// EndReason records why a session ended.
type EndReason int

const (
	ReasonEnded EndReason = iota
	ReasonDuration
	ReasonMaxFrames
	ReasonCancelled
	ReasonEngineError
	ReasonSinkError
)

func (r EndReason) String() string {
	switch r {
	case ReasonEnded:
		return "end of stream"
	case ReasonDuration:
		return "duration limit"
	case ReasonMaxFrames:
		return "frame limit"
	case ReasonCancelled:
		return "cancelled"
	case ReasonEngineError:
		return "engine error"
	case ReasonSinkError:
		return "sink error"
	default:
		return "unknown"
	}
}

// Orchestrator coordinates a player and a sink.
type Orchestrator struct {
	player Playback
	sink   ports.FrameSink
	logger ports.Logger
}

// New creates a new Orchestrator.
func New(player Playback, sink ports.FrameSink, logger ports.Logger) *Orchestrator {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Orchestrator{
		player: player,
		sink:   sink,
		logger: logger.WithComponent("session"),
	}
}

// Run plays config.Media into the sink until the session ends. A
// cancelled ctx ends the session normally; engine and sink failures are
// returned as errors together with the partial result.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.WatchInterval <= 0 {
		config.WatchInterval = DefaultConfig().WatchInterval
	}
	if config.MaxFrames > 0 {
		config.Display.MaxFrames = config.MaxFrames
	}

	format := o.player.Format()
	if err := o.sink.Begin(format); err != nil {
		o.logger.Error("Failed to open sink: %s", err)
		return RunResult{}, fmt.Errorf("begin sink: %w", err)
	}

	o.logger.Info("Starting session for %s", config.Media)
	if err := o.player.Play(config.Media); err != nil {
		o.sink.End()
		return RunResult{}, fmt.Errorf("play: %w", err)
	}
	session := o.player.Session()
	start := time.Now()

	loop := display.New(o.player, o.sink, config.Display)
	g, gctx := errgroup.WithContext(ctx)
	loopCtx, cancelLoop := context.WithCancel(gctx)
	defer cancelLoop()

	loopDone := make(chan struct{})
	var stats display.Stats
	g.Go(func() error {
		defer close(loopDone)
		var err error
		stats, err = loop.Run(loopCtx)
		return err
	})

	var (
		reason     EndReason
		finalState ports.State
	)
	g.Go(func() error {
		reason, finalState = o.watch(gctx, config, loopDone)
		if err := o.player.Stop(); err != nil {
			o.logger.Warn("Failed to stop player: %s", err)
		}
		cancelLoop()
		return nil
	})

	loopErr := g.Wait()
	if loopErr != nil {
		reason = ReasonSinkError
	}
	endErr := o.sink.End()

	result := RunResult{
		Session:    session,
		Media:      config.Media,
		Format:     format,
		Reason:     reason,
		FinalState: finalState,
		Display:    stats,
		Queue:      o.player.Snapshot(),
		Elapsed:    time.Since(start),
	}
	o.describeMedia(&result)
	o.logger.Info("Session ended (%s) after %d frames", reason, stats.Frames)

	var errs []error
	if loopErr != nil {
		errs = append(errs, fmt.Errorf("display: %w", loopErr))
	}
	if reason == ReasonEngineError {
		errs = append(errs, ErrPlaybackFailed)
	}
	if endErr != nil {
		errs = append(errs, fmt.Errorf("end sink: %w", endErr))
	}
	return result, errors.Join(errs...)
}

// watch blocks until the session should end and returns why, together
// with the engine state observed at that moment.
func (o *Orchestrator) watch(ctx context.Context, config Config, loopDone <-chan struct{}) (EndReason, ports.State) {
	ticker := time.NewTicker(config.WatchInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if config.Duration > 0 {
		timer := time.NewTimer(config.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ReasonCancelled, o.player.State()
		case <-deadline:
			o.logger.Debug("Duration limit reached")
			return ReasonDuration, o.player.State()
		case <-loopDone:
			if config.Display.MaxFrames > 0 {
				return ReasonMaxFrames, o.player.State()
			}
			return ReasonEnded, o.player.State()
		case <-ticker.C:
		}

		switch state := o.player.State(); state {
		case ports.StateError:
			o.logger.Error("Engine reported an error")
			return ReasonEngineError, state
		case ports.StateEnded:
			// Let the display loop drain what was published before the end.
			if o.player.Pending() == 0 {
				return ReasonEnded, state
			}
		}
	}
}

func (o *Orchestrator) describeMedia(result *RunResult) {
	if title, err := o.player.Meta("title"); err == nil {
		result.Title = title
	}
	if length, err := o.player.Length(); err == nil {
		result.Length = length
	}
	if fps, err := o.player.FPS(); err == nil {
		result.FPS = fps
	}
}

// RunResult contains the results of a session for summary generation.
type RunResult struct {
	Session string
	Media   string
	Title   string
	Length  time.Duration
	FPS     float64
	Format  ports.VideoFormat

	Reason     EndReason
	FinalState ports.State
	Display    display.Stats
	Queue      framequeue.Snapshot
	Elapsed    time.Duration
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) WithComponent(string) ports.Logger { return n }
