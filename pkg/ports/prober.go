package ports

import (
	"time"
)

// MediaInfo describes the first video track of a media file.
type MediaInfo struct {
	Codec      string // "h264", "av1", "hevc", ...
	Width      int
	Height     int
	Duration   time.Duration
	FPS        float64
	FrameCount int
	Title      string
}

// MediaProber reads container metadata without decoding.
type MediaProber interface {
	Probe(path string) (*MediaInfo, error)
}
