package patternengine

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/user/vmemplay/pkg/ports"
)

// Pattern selects what the engine draws.
type Pattern int

const (
	PatternBars Pattern = iota
	PatternGradient
)

// ParsePattern extracts the pattern from a media URL such as
// "pattern://bars" or "pattern:gradient". An empty name selects bars.
func ParsePattern(url string) (Pattern, error) {
	name := url
	if i := strings.Index(name, ":"); i >= 0 {
		name = strings.TrimLeft(name[i+1:], "/")
	}
	switch strings.ToLower(name) {
	case "", "bars", "smpte":
		return PatternBars, nil
	case "gradient":
		return PatternGradient, nil
	default:
		return 0, fmt.Errorf("patternengine: unknown pattern %q", name)
	}
}

// String returns the pattern name.
func (p Pattern) String() string {
	if p == PatternGradient {
		return "gradient"
	}
	return "bars"
}

// barColors are the seven SMPTE color bars.
var barColors = [7][3]uint8{
	{192, 192, 192}, // Gray
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
}

// FillColorBars fills an RGBA frame with SMPTE color bars.
func FillColorBars(buf []byte, width, height, stride int) {
	barWidth := width / 7
	if barWidth == 0 {
		barWidth = 1
	}
	for y := 0; y < height; y++ {
		row := buf[y*stride:]
		for x := 0; x < width; x++ {
			barIdx := x / barWidth
			if barIdx >= 7 {
				barIdx = 6
			}
			i := x * 4
			row[i] = barColors[barIdx][0]
			row[i+1] = barColors[barIdx][1]
			row[i+2] = barColors[barIdx][2]
			row[i+3] = 255
		}
	}
}

// FillGradient fills an RGBA frame with a horizontal gradient whose hue
// shifts with frame.
func FillGradient(buf []byte, width, height, stride int, frame int64) {
	shift := uint8(frame * 3)
	for y := 0; y < height; y++ {
		row := buf[y*stride:]
		for x := 0; x < width; x++ {
			v := uint8(x*255/max(width-1, 1)) + shift
			i := x * 4
			row[i] = v
			row[i+1] = uint8(y * 255 / max(height-1, 1))
			row[i+2] = 255 - v
			row[i+3] = 255
		}
	}
}

var (
	sweepColor = color.RGBA{255, 255, 255, 255}
	labelBack  = color.RGBA{0, 0, 0, 255}
)

// drawFrame renders one frame of the pattern into buf.
func drawFrame(buf []byte, format ports.VideoFormat, pattern Pattern, frame int64, renderer ports.Renderer, label color.Color) {
	w, h := format.Width, format.Height
	switch pattern {
	case PatternGradient:
		FillGradient(buf, w, h, format.Pitch, frame)
	default:
		FillColorBars(buf, w, h, format.Pitch)
	}
	if renderer == nil {
		drawSweep(buf, format, frame)
		return
	}

	img := &image.RGBA{Pix: buf, Stride: format.Pitch, Rect: image.Rect(0, 0, w, h)}
	canvas := renderer.CanvasFor(img)

	band := max(h/8, 1)
	sweep := max(w/16, 1)
	x := int(frame*int64(sweep)) % w
	canvas.DrawRect(x, h-band, sweep, band, sweepColor)

	if h >= 24 && w >= 48 {
		canvas.DrawRect(w/2-24, h/2-8, 48, 16, labelBack)
		canvas.DrawText(fmt.Sprintf("%06d", frame), w/2, h/2, ports.TextStyle{
			FontSize: 12,
			Color:    label,
			Align:    ports.AlignCenter,
		})
	}
}

// drawSweep draws the moving bar without a renderer.
func drawSweep(buf []byte, format ports.VideoFormat, frame int64) {
	w, h := format.Width, format.Height
	band := max(h/8, 1)
	sweep := max(w/16, 1)
	x0 := int(frame*int64(sweep)) % w
	for y := h - band; y < h; y++ {
		row := buf[y*format.Pitch:]
		for x := x0; x < x0+sweep && x < w; x++ {
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = 255, 255, 255, 255
		}
	}
}
