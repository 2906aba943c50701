package mp4probe

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmentedMP4 writes a single-track av01 file with n samples of
// one frame each at the given rate.
func buildFragmentedMP4(t *testing.T, width, height, n int, fps uint32) []byte {
	t.Helper()

	timescale := fps * 1000
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	av1C := &mp4.Av1CBox{CodecConfRec: av1.CodecConfRec{
		Version:            1,
		SeqLevelIdx0:       8,
		ChromaSubsamplingX: 1,
		ChromaSubsamplingY: 1,
	}}
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", uint16(width), uint16(height), av1C))
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < n; i++ {
		data := []byte{0x12, 0x00, byte(i)}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(data)),
				Dur:   1000,
			},
			DecodeTime: uint64(i) * 1000,
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "av01", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProber_Fragmented(t *testing.T) {
	data := buildFragmentedMP4(t, 320, 240, 50, 25)

	info, err := New().ProbeReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}

	if info.Codec != "av1" {
		t.Errorf("expected codec av1, got %q", info.Codec)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.FrameCount != 50 {
		t.Errorf("expected 50 frames, got %d", info.FrameCount)
	}
	if info.Duration != 2*time.Second {
		t.Errorf("expected 2s, got %s", info.Duration)
	}
	if math.Abs(info.FPS-25) > 0.01 {
		t.Errorf("expected 25 fps, got %f", info.FPS)
	}
}

func TestProber_ProbeFileSetsTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "color-bars.mp4")
	if err := os.WriteFile(path, buildFragmentedMP4(t, 64, 48, 5, 10), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	info, err := New().Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Title != "color-bars" {
		t.Errorf("expected title color-bars, got %q", info.Title)
	}
}

// buildTruncatedTrak writes ftyp and a moov whose only trak is a video
// trak missing either its track header or its media information box.
func buildTruncatedTrak(t *testing.T, withTkhd bool) []byte {
	t.Helper()

	hdlr, err := mp4.CreateHdlr("vide")
	if err != nil {
		t.Fatalf("create hdlr: %v", err)
	}
	mdia := mp4.NewMdiaBox()
	mdia.AddChild(&mp4.MdhdBox{Timescale: 1000, Duration: 2000})
	mdia.AddChild(hdlr)

	trak := mp4.NewTrakBox()
	if withTkhd {
		trak.AddChild(mp4.CreateTkhd())
	} else {
		// Keep the sample table so only the missing tkhd is exercised.
		minf := mp4.NewMinfBox()
		stbl := mp4.NewStblBox()
		stbl.AddChild(mp4.NewStsdBox())
		minf.AddChild(stbl)
		mdia.AddChild(minf)
	}
	trak.AddChild(mdia)

	moov := mp4.NewMoovBox()
	moov.AddChild(mp4.CreateMvhd())
	moov.AddChild(trak)

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	return buf.Bytes()
}

func TestProber_Errors(t *testing.T) {
	if _, err := New().Probe(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "en")
	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		t.Fatalf("encode init: %v", err)
	}
	_, err := New().ProbeReader(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}

	for _, tt := range []struct {
		name     string
		withTkhd bool
	}{
		{name: "video trak without minf", withTkhd: true},
		{name: "video trak without tkhd", withTkhd: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().ProbeReader(bytes.NewReader(buildTruncatedTrak(t, tt.withTkhd)))
			if !errors.Is(err, ErrNoVideoTrack) {
				t.Errorf("expected ErrNoVideoTrack, got %v", err)
			}
		})
	}
}

func TestCodecName(t *testing.T) {
	tests := map[string]string{
		"avc1": "h264",
		"avc3": "h264",
		"hev1": "hevc",
		"av01": "av1",
		"vp09": "vp9",
		"mp4v": "mp4v",
	}
	for box, want := range tests {
		if got := codecName(box); got != want {
			t.Errorf("codecName(%q) = %q, want %q", box, got, want)
		}
	}
}
