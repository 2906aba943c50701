package ports

import (
	"image"
	"time"
)

// Frame is a decoded frame handed from the display loop to a sink.
// Pix aliases a queue slot and is only valid until WriteFrame returns.
type Frame struct {
	Seq    uint64
	Pix    []byte
	Width  int
	Height int
	Stride int
	At     time.Duration // Time since the session started
}

// Image wraps the frame as an RGBA image without copying.
func (f Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// FrameSink consumes displayed frames.
type FrameSink interface {
	// Begin prepares the sink for frames of the given format.
	Begin(format VideoFormat) error

	// WriteFrame consumes one frame. The sink must not retain f.Pix.
	WriteFrame(f Frame) error

	// End flushes and releases the sink.
	End() error
}
