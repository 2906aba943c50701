package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/vmemplay/pkg/display"
	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/ports"
)

func TestDefaults_Valid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vmemplay.yaml")
	content := `
media: pattern://gradient
width: 320
height: 180
capacity: 5
display:
  mode: poll
  interval_ms: 10
pattern:
  fps: 50
  length_ms: 2000
sink: png
png:
  every: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Media != "pattern://gradient" || cfg.Width != 320 || cfg.Capacity != 5 {
		t.Errorf("unexpected values %+v", cfg)
	}
	if cfg.Display.Mode != "poll" || cfg.Display.IntervalMs != 10 {
		t.Errorf("unexpected display config %+v", cfg.Display)
	}
	// Unset fields keep their defaults.
	if cfg.Engine != "pattern" || cfg.Allocator != "heap" || cfg.PNG.Quality != 85 || cfg.PNG.Every != 10 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("width: [1, 2"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"capacity too small", func(c *Config) { c.Capacity = 2 }, "capacity 2"},
		{"unaligned width", func(c *Config) { c.Width = 321 }, "multiple of 4"},
		{"zero height", func(c *Config) { c.Height = 0 }, "height 0"},
		{"allocator", func(c *Config) { c.Allocator = "gpu" }, `allocator "gpu"`},
		{"engine", func(c *Config) { c.Engine = "vlc" }, `engine "vlc"`},
		{"ffmpeg without media", func(c *Config) { c.Engine = "ffmpeg" }, "needs media"},
		{"sink", func(c *Config) { c.Sink = "screen" }, `sink "screen"`},
		{"mode", func(c *Config) { c.Display.Mode = "vsync" }, "unknown mode"},
		{"negative limit", func(c *Config) { c.MaxFrames = -1 }, "negative"},
		{"label color", func(c *Config) { c.Pattern.LabelColor = "#12345" }, "label color"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Capacity = 1
	cfg.Sink = "tv"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "capacity") || !strings.Contains(err.Error(), "sink") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#ffffff", color.RGBA{255, 255, 255, 255}, false},
		{"1a1a2e", color.RGBA{0x1a, 0x1a, 0x2e, 255}, false},
		{"#4ADE80", color.RGBA{0x4a, 0xde, 0x80, 255}, false},
		{"#fff", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Defaults()
	cfg.Media = "pattern://bars"
	cfg.DurationMs = 1500
	cfg.MaxFrames = 42
	cfg.Display.Mode = "poll"
	cfg.Allocator = "mmap"
	cfg.Pattern.LabelColor = "#ff0000"

	popts := cfg.ToPlayerOptions(nil)
	if popts.Width != 640 || popts.Height != 360 || popts.Capacity != framequeue.DefaultCapacity {
		t.Errorf("unexpected player options %+v", popts)
	}
	if popts.Allocator == nil {
		t.Error("expected an allocator")
	}

	oc, err := cfg.ToOrchestratorConfig(nil)
	if err != nil {
		t.Fatalf("ToOrchestratorConfig failed: %v", err)
	}
	if oc.Media != "pattern://bars" || oc.Duration != 1500*time.Millisecond || oc.MaxFrames != 42 {
		t.Errorf("unexpected orchestrator config %+v", oc)
	}
	if oc.Display.Mode != display.ModePoll || oc.Display.Interval != 40*time.Millisecond || oc.Display.MaxFrames != 42 {
		t.Errorf("unexpected display options %+v", oc.Display)
	}

	pat := cfg.ToPatternOptions(nil, nil)
	if pat.FPS != 25 || pat.Label != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("unexpected pattern options %+v", pat)
	}

	png := cfg.ToPNGOptions()
	if png.Format != ports.FormatPNG || png.Every != 25 {
		t.Errorf("unexpected png options %+v", png)
	}

	rec := cfg.ToRecordOptions()
	if rec.FPS != 25 || rec.CRF != 23 {
		t.Errorf("unexpected record options %+v", rec)
	}

	cfg.Display.Mode = "bogus"
	if _, err := cfg.ToDisplayOptions(nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}
