package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/user/vmemplay/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(64, 48, color.White)
	bounds := canvas.ToImage().Bounds()

	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_CanvasForDrawsInPlace(t *testing.T) {
	r := New()
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))

	canvas := r.CanvasFor(dst)
	canvas.DrawRect(0, 0, 16, 16, color.RGBA{R: 255, A: 255})

	got := dst.RGBAAt(8, 8)
	if got.R != 255 || got.G != 0 || got.B != 0 {
		t.Errorf("expected red pixel in destination buffer, got %+v", got)
	}
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 50 {
		t.Errorf("expected width 50, got %d", decoded.Bounds().Dx())
	}
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("expected 30x20, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))

	resized := r.ResizeImage(img, 50, 30)

	if b := resized.Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("expected 50x30, got %dx%d", b.Dx(), b.Dy())
	}
}
