package service

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestPrepare_ShrinksLargeImages(t *testing.T) {
	out, w, h, err := NewImagingProcessor().Prepare(encodePNG(t, 3200, 1600), GalleryMaxWidth, GalleryMaxHeight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 1600 || h != 800 {
		t.Errorf("expected 1600x800, got %dx%d", w, h)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Errorf("reported %dx%d but encoded %dx%d", w, h, cfg.Width, cfg.Height)
	}
}

func TestPrepare_KeepsSmallImages(t *testing.T) {
	_, w, h, err := NewImagingProcessor().Prepare(encodePNG(t, 40, 30), GalleryMaxWidth, GalleryMaxHeight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 40 || h != 30 {
		t.Errorf("small images must not be enlarged, got %dx%d", w, h)
	}
}

func TestPrepare_RejectsNonImages(t *testing.T) {
	_, _, _, err := NewImagingProcessor().Prepare(strings.NewReader("not an image"), GalleryMaxWidth, GalleryMaxHeight)
	if err == nil {
		t.Fatal("expected decode error")
	}
}
