// Package recordsink provides a frame sink that encodes frames to MP4
// through an ffmpeg subprocess.
package recordsink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/user/vmemplay/pkg/adapters/ffmpegengine"
	"github.com/user/vmemplay/pkg/ports"
)

var (
	// ErrNotStarted is returned when frames are written outside Begin/End.
	ErrNotStarted = errors.New("recordsink: not started")
	// ErrFrameSize is returned for frames that do not match the format.
	ErrFrameSize = errors.New("recordsink: frame size mismatch")
)

// Options configures the recording.
type Options struct {
	Path       string
	FPS        float64
	CRF        int // x264 CRF 0-51; 0 uses 23
	FFmpegPath string
}

// Sink pipes raw RGBA frames into ffmpeg (libx264) and streams the
// fragmented MP4 it produces into a file created through ports.FileSystem.
type Sink struct {
	opts Options
	fs   ports.FileSystem

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	out      io.WriteCloser
	copyErr  chan error
	stderr   bytes.Buffer
	format   ports.VideoFormat
	frames   int
	writeErr error
}

// New creates a recording sink.
func New(opts Options, fs ports.FileSystem) *Sink {
	if opts.FPS <= 0 {
		opts.FPS = 25
	}
	if opts.CRF <= 0 || opts.CRF > 51 {
		opts.CRF = 23
	}
	return &Sink{opts: opts, fs: fs}
}

// BuildArgs returns the ffmpeg arguments for encoding raw frames of format
// read from stdin into a fragmented MP4 on stdout.
func BuildArgs(format ports.VideoFormat, fps float64, crf int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", format.Width, format.Height),
		"-r", strconv.FormatFloat(fps, 'f', 2, 64),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(crf),
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"-f", "mp4",
		"pipe:1",
	}
}

// Begin starts ffmpeg and opens the output file.
func (s *Sink) Begin(format ports.VideoFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.New("recordsink: already started")
	}

	path, err := ffmpegengine.FindFFmpeg(s.opts.FFmpegPath)
	if err != nil {
		return err
	}

	out, err := s.fs.Create(s.opts.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	cmd := exec.Command(path, BuildArgs(format, s.opts.FPS, s.opts.CRF)...)
	s.stderr.Reset()
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		out.Close()
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		out.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		out.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	copyErr := make(chan error, 1)
	go func() {
		_, err := io.Copy(out, stdout)
		copyErr <- err
	}()

	s.cmd = cmd
	s.stdin = stdin
	s.out = out
	s.copyErr = copyErr
	s.format = format
	s.frames = 0
	s.writeErr = nil
	return nil
}

// WriteFrame writes one frame to ffmpeg's stdin. The write completes
// before it returns.
func (s *Sink) WriteFrame(f ports.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil {
		return ErrNotStarted
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	if len(f.Pix) != s.format.FrameSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(f.Pix), s.format.FrameSize())
	}
	if _, err := s.stdin.Write(f.Pix); err != nil {
		s.writeErr = fmt.Errorf("write frame %d: %w", f.Seq, err)
		return s.writeErr
	}
	s.frames++
	return nil
}

// End closes ffmpeg's input and waits for the output to be flushed.
func (s *Sink) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return ErrNotStarted
	}
	cmd, stdin, out := s.cmd, s.stdin, s.out
	s.cmd, s.stdin, s.out = nil, nil, nil

	var errs []error
	if err := stdin.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close input: %w", err))
	}
	if err := <-s.copyErr; err != nil {
		errs = append(errs, fmt.Errorf("copy output: %w", err))
	}
	if err := cmd.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, s.stderr.String()))
	}
	if err := out.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	return errors.Join(errs...)
}

// Frames returns the number of frames written since Begin.
func (s *Sink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

var _ ports.FrameSink = (*Sink)(nil)
