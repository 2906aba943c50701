// Package pngsink provides a frame sink that saves frames as image files.
package pngsink

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/user/vmemplay/pkg/ports"
)

// Options configures the sink.
type Options struct {
	Dir      string
	Every    int               // Save every Nth frame; 0 or 1 saves all
	Format   ports.ImageFormat // PNG or JPEG
	Quality  int               // JPEG quality
	MaxWidth int               // Scale frames down to this width; 0 keeps full size
}

// Sink encodes frames through a Renderer and writes them to a FileSystem
// as frame-<seq>.<ext> under Options.Dir.
type Sink struct {
	opts     Options
	fs       ports.FileSystem
	renderer ports.Renderer

	mu     sync.Mutex
	format ports.VideoFormat
	paths  []string
}

// New creates a new image sink.
func New(opts Options, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	if opts.Every < 1 {
		opts.Every = 1
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	return &Sink{opts: opts, fs: fs, renderer: renderer}
}

// Begin creates the output directory.
func (s *Sink) Begin(format ports.VideoFormat) error {
	if err := s.fs.MkdirAll(s.opts.Dir); err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = format
	s.paths = nil
	return nil
}

// WriteFrame saves the frame if its sequence number is selected. Encoding
// completes before it returns, so the slot can be recycled right after.
func (s *Sink) WriteFrame(f ports.Frame) error {
	if f.Seq%uint64(s.opts.Every) != 0 {
		return nil
	}

	var img image.Image = f.Image()
	if s.opts.MaxWidth > 0 && f.Width > s.opts.MaxWidth {
		h := f.Height * s.opts.MaxWidth / f.Width
		if h < 1 {
			h = 1
		}
		img = s.renderer.ResizeImage(img, s.opts.MaxWidth, h)
	}

	data, err := s.renderer.EncodeImage(img, s.opts.Format, s.opts.Quality)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}

	path := filepath.Join(s.opts.Dir, fmt.Sprintf("frame-%06d.%s", f.Seq, s.opts.Format.Ext()))
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Seq, err)
	}

	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return nil
}

func (s *Sink) End() error {
	return nil
}

// Paths returns the files written since Begin.
func (s *Sink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

var _ ports.FrameSink = (*Sink)(nil)
