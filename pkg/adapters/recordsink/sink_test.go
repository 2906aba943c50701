package recordsink

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/vmemplay/pkg/adapters/ffmpegengine"
	"github.com/user/vmemplay/pkg/adapters/mp4probe"
	"github.com/user/vmemplay/pkg/adapters/osfilesystem"
	"github.com/user/vmemplay/pkg/mocks"
	"github.com/user/vmemplay/pkg/ports"
)

var testFormat = ports.VideoFormat{Chroma: ports.ChromaRGBA, Width: 64, Height: 48, Pitch: 256}

func TestBuildArgs(t *testing.T) {
	joined := strings.Join(BuildArgs(testFormat, 30, 18), " ")

	for _, want := range []string{"-s 64x48", "-r 30.00", "-i pipe:0", "-crf 18", "-f mp4 pipe:1", "empty_moov"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{CRF: 99}, mocks.NewFileSystem())
	if s.opts.FPS != 25 || s.opts.CRF != 23 {
		t.Errorf("unexpected defaults fps=%f crf=%d", s.opts.FPS, s.opts.CRF)
	}
}

func TestSink_NotStarted(t *testing.T) {
	s := New(Options{Path: "out.mp4"}, mocks.NewFileSystem())

	if err := s.WriteFrame(ports.Frame{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if err := s.End(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestSink_RecordsProbeableMP4(t *testing.T) {
	if !ffmpegengine.IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "rec", "session.mp4")
	s := New(Options{Path: path, FPS: 25}, osfilesystem.New())

	if err := s.Begin(testFormat); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	pix := make([]byte, testFormat.FrameSize())
	for i := 0; i < 10; i++ {
		for j := range pix {
			pix[j] = byte(i * 20)
		}
		if err := s.WriteFrame(ports.Frame{Seq: uint64(i), Pix: pix, Width: 64, Height: 48, Stride: 256}); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := s.WriteFrame(ports.Frame{Pix: pix[:10]}); !errors.Is(err, ErrFrameSize) {
		t.Errorf("expected ErrFrameSize, got %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if s.Frames() != 10 {
		t.Errorf("expected 10 frames, got %d", s.Frames())
	}

	info, err := mp4probe.New().Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Codec != "h264" || info.Width != 64 || info.Height != 48 {
		t.Errorf("unexpected media info %+v", info)
	}
	if info.FrameCount != 10 {
		t.Errorf("expected 10 frames in file, got %d", info.FrameCount)
	}
}
