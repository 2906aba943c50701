// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/vmemplay/pkg/adapters/ffmpegengine"
	"github.com/user/vmemplay/pkg/adapters/patternengine"
	"github.com/user/vmemplay/pkg/adapters/pngsink"
	"github.com/user/vmemplay/pkg/adapters/recordsink"
	"github.com/user/vmemplay/pkg/display"
	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/orchestrator"
	"github.com/user/vmemplay/pkg/player"
	"github.com/user/vmemplay/pkg/ports"
)

// ErrInvalid is matched by every error returned from Validate.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the full configuration for vmemplay.
type Config struct {
	// Input
	Media  string `yaml:"media"`
	Engine string `yaml:"engine"` // pattern | ffmpeg

	// Frame queue
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Capacity  int    `yaml:"capacity"`
	Allocator string `yaml:"allocator"` // heap | mmap

	// Session limits
	DurationMs int `yaml:"duration_ms"`
	MaxFrames  int `yaml:"max_frames"`

	Pattern PatternConfig `yaml:"pattern"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Display DisplayConfig `yaml:"display"`

	// Output
	Sink    string       `yaml:"sink"` // null | png | record
	PNG     PNGConfig    `yaml:"png"`
	Record  RecordConfig `yaml:"record"`
	Summary string       `yaml:"summary"`

	LogLevel string `yaml:"log_level"`
}

// PatternConfig configures the synthetic engine.
type PatternConfig struct {
	FPS        float64 `yaml:"fps"`
	LengthMs   int     `yaml:"length_ms"`
	Unpaced    bool    `yaml:"unpaced"`
	LabelColor string  `yaml:"label_color"`
}

// FFmpegConfig configures the ffmpeg engine.
type FFmpegConfig struct {
	Path        string `yaml:"path"`
	InputFormat string `yaml:"input_format"`
	Realtime    bool   `yaml:"realtime"`
}

// DisplayConfig configures the consumer loop.
type DisplayConfig struct {
	Mode       string `yaml:"mode"` // wait | poll
	IntervalMs int    `yaml:"interval_ms"`
	MaxErrors  int    `yaml:"max_errors"`
}

// PNGConfig configures the image sink.
type PNGConfig struct {
	Dir      string `yaml:"dir"`
	Every    int    `yaml:"every"`
	Format   string `yaml:"format"` // png | jpeg
	Quality  int    `yaml:"quality"`
	MaxWidth int    `yaml:"max_width"`
}

// RecordConfig configures the MP4 sink.
type RecordConfig struct {
	Path string  `yaml:"path"`
	FPS  float64 `yaml:"fps"`
	CRF  int     `yaml:"crf"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Engine: "pattern",

		Width:     640,
		Height:    360,
		Capacity:  framequeue.DefaultCapacity,
		Allocator: "heap",

		Pattern: PatternConfig{
			FPS:        25,
			LabelColor: "#ffffff",
		},
		FFmpeg: FFmpegConfig{
			Realtime: true,
		},
		Display: DisplayConfig{
			Mode:       "wait",
			IntervalMs: 40,
		},

		Sink: "null",
		PNG: PNGConfig{
			Dir:     "./frames",
			Every:   25,
			Format:  "png",
			Quality: 85,
		},
		Record: RecordConfig{
			Path: "./output.mp4",
			CRF:  23,
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	if c.Width <= 0 || c.Width%4 != 0 {
		add("width %d must be a positive multiple of 4", c.Width)
	}
	if c.Height <= 0 {
		add("height %d must be positive", c.Height)
	}
	if c.Capacity < framequeue.MinCapacity {
		add("capacity %d is below %d", c.Capacity, framequeue.MinCapacity)
	}
	if !oneOf(c.Allocator, "heap", "mmap") {
		add("unknown allocator %q", c.Allocator)
	}
	if !oneOf(c.Engine, "pattern", "ffmpeg") {
		add("unknown engine %q", c.Engine)
	}
	if c.Engine == "ffmpeg" && c.Media == "" {
		add("the ffmpeg engine needs media")
	}
	if !oneOf(c.Sink, "null", "png", "record") {
		add("unknown sink %q", c.Sink)
	}
	if _, err := display.ParseMode(c.Display.Mode); err != nil {
		add("%s", err)
	}
	if c.Display.IntervalMs < 0 || c.DurationMs < 0 || c.MaxFrames < 0 {
		add("durations and limits must not be negative")
	}
	if c.Pattern.LabelColor != "" {
		if _, err := ParseColor(c.Pattern.LabelColor); err != nil {
			add("pattern label color: %s", err)
		}
	}
	if c.LogLevel != "" && ports.ParseLogLevel(c.LogLevel).String() != c.LogLevel {
		add("unknown log level %q", c.LogLevel)
	}

	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return true
		}
	}
	return false
}

// ParseColor parses a "#rrggbb" hex color.
func ParseColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[i*2])
		lo, ok2 := hexValue(hex[i*2+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// NewAllocator returns the slot allocator named by Allocator.
func (c Config) NewAllocator() framequeue.Allocator {
	if strings.EqualFold(c.Allocator, "mmap") {
		return framequeue.NewMmapAllocator()
	}
	return framequeue.HeapAllocator{}
}

// ToPlayerOptions converts Config to player.Options.
func (c Config) ToPlayerOptions(logger ports.Logger) player.Options {
	return player.Options{
		Width:     c.Width,
		Height:    c.Height,
		Capacity:  c.Capacity,
		Allocator: c.NewAllocator(),
		Logger:    logger,
	}
}

// ToDisplayOptions converts Config to display.Options.
func (c Config) ToDisplayOptions(logger ports.Logger) (display.Options, error) {
	mode, err := display.ParseMode(c.Display.Mode)
	if err != nil {
		return display.Options{}, err
	}
	return display.Options{
		Mode:      mode,
		Interval:  time.Duration(c.Display.IntervalMs) * time.Millisecond,
		MaxFrames: c.MaxFrames,
		MaxErrors: c.Display.MaxErrors,
		Logger:    logger,
	}, nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(logger ports.Logger) (orchestrator.Config, error) {
	disp, err := c.ToDisplayOptions(logger)
	if err != nil {
		return orchestrator.Config{}, err
	}
	oc := orchestrator.DefaultConfig()
	oc.Media = c.Media
	oc.Duration = time.Duration(c.DurationMs) * time.Millisecond
	oc.MaxFrames = c.MaxFrames
	oc.Display = disp
	return oc, nil
}

// ToPatternOptions converts Config to patternengine.Options.
func (c Config) ToPatternOptions(renderer ports.Renderer, logger ports.Logger) patternengine.Options {
	opts := patternengine.Options{
		FPS:      c.Pattern.FPS,
		Length:   time.Duration(c.Pattern.LengthMs) * time.Millisecond,
		Unpaced:  c.Pattern.Unpaced,
		Renderer: renderer,
		Logger:   logger,
	}
	if label, err := ParseColor(c.Pattern.LabelColor); err == nil {
		opts.Label = label
	}
	return opts
}

// ToFFmpegOptions converts Config to ffmpegengine.Options.
func (c Config) ToFFmpegOptions(prober ports.MediaProber, logger ports.Logger) ffmpegengine.Options {
	return ffmpegengine.Options{
		FFmpegPath:  c.FFmpeg.Path,
		InputFormat: c.FFmpeg.InputFormat,
		Realtime:    c.FFmpeg.Realtime,
		Prober:      prober,
		Logger:      logger,
	}
}

// ToPNGOptions converts Config to pngsink.Options.
func (c Config) ToPNGOptions() pngsink.Options {
	return pngsink.Options{
		Dir:      c.PNG.Dir,
		Every:    c.PNG.Every,
		Format:   ports.ParseImageFormat(c.PNG.Format),
		Quality:  c.PNG.Quality,
		MaxWidth: c.PNG.MaxWidth,
	}
}

// ToRecordOptions converts Config to recordsink.Options. The frame rate
// falls back to the pattern rate when unset.
func (c Config) ToRecordOptions() recordsink.Options {
	fps := c.Record.FPS
	if fps <= 0 {
		fps = c.Pattern.FPS
	}
	return recordsink.Options{
		Path:       c.Record.Path,
		FPS:        fps,
		CRF:        c.Record.CRF,
		FFmpegPath: c.FFmpeg.Path,
	}
}
