// Package mp4probe reads video track metadata from MP4 files.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/vmemplay/pkg/ports"
)

// ErrNoVideoTrack is returned when the file has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Prober implements ports.MediaProber for progressive and fragmented MP4.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe reads the first video track of the file at path.
func (p *Prober) Probe(path string) (*ports.MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := p.ProbeReader(f)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	info.Title = strings.TrimSuffix(base, filepath.Ext(base))
	return info, nil
}

// ProbeReader reads the first video track from r.
func (p *Prober) ProbeReader(r io.ReadSeeker) (*ports.MediaInfo, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	moov := file.Moov
	if file.IsFragmented() && file.Init != nil {
		moov = file.Init.Moov
	}
	if moov == nil {
		return nil, ErrNoVideoTrack
	}

	trak := videoTrack(moov)
	if trak == nil {
		return nil, ErrNoVideoTrack
	}

	info := &ports.MediaInfo{Codec: "unknown"}
	if entry := sampleEntry(trak); entry != nil {
		info.Codec = codecName(entry.Type())
		info.Width = int(entry.Width)
		info.Height = int(entry.Height)
	}
	if info.Width == 0 {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	timescale := uint32(1000)
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	var frames int
	var ticks uint64
	if file.IsFragmented() {
		frames, ticks, err = countFragmented(file, moov, trak.Tkhd.TrackID)
		if err != nil {
			return nil, err
		}
	} else {
		frames, ticks = countProgressive(trak)
	}

	info.FrameCount = frames
	info.Duration = time.Duration(ticks) * time.Second / time.Duration(timescale)
	if info.Duration > 0 {
		info.FPS = float64(frames) / info.Duration.Seconds()
	}
	return info, nil
}

// videoTrack returns the first video trak that carries a track header and a
// sample table. Truncated traks are skipped.
func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Tkhd == nil || trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		if trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		return trak
	}
	return nil
}

func sampleEntry(trak *mp4.TrakBox) *mp4.VisualSampleEntryBox {
	if trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if entry, ok := child.(*mp4.VisualSampleEntryBox); ok {
			return entry
		}
	}
	return nil
}

func codecName(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp09":
		return "vp9"
	default:
		return boxType
	}
}

func countProgressive(trak *mp4.TrakBox) (int, uint64) {
	stbl := trak.Mdia.Minf.Stbl
	var frames int
	var ticks uint64
	if stbl.Stts != nil {
		for i, n := range stbl.Stts.SampleCount {
			frames += int(n)
			ticks += uint64(n) * uint64(stbl.Stts.SampleTimeDelta[i])
		}
	}
	if frames == 0 && stbl.Stsz != nil {
		frames = int(stbl.Stsz.SampleNumber)
	}
	if ticks == 0 && trak.Mdia.Mdhd != nil {
		ticks = trak.Mdia.Mdhd.Duration
	}
	return frames, ticks
}

func countFragmented(file *mp4.File, moov *mp4.MoovBox, trackID uint32) (int, uint64, error) {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var frames int
	var ticks uint64
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return 0, 0, fmt.Errorf("read fragment samples: %w", err)
			}
			for _, s := range samples {
				frames++
				ticks += uint64(s.Dur)
			}
		}
	}
	return frames, ticks, nil
}

var _ ports.MediaProber = (*Prober)(nil)
