package service

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the WebP decoder with image.Decode
)

// Gallery image output settings.
const (
	GalleryMaxWidth    = 1600
	GalleryMaxHeight   = 1600
	GalleryJPEGQuality = 85
)

// ImageProcessor prepares uploaded images for the gallery.
type ImageProcessor interface {
	// Prepare decodes data, applies the EXIF orientation, shrinks the image to
	// fit maxWidth x maxHeight and re-encodes it as JPEG. Smaller images are
	// not enlarged. Returns the JPEG bytes and the output dimensions.
	Prepare(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

type imagingProcessor struct {
	quality int
}

// NewImagingProcessor creates an ImageProcessor backed by the imaging library.
func NewImagingProcessor() ImageProcessor {
	return &imagingProcessor{quality: GalleryJPEGQuality}
}

func (p *imagingProcessor) Prepare(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, err := imaging.Decode(data, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxWidth || b.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode image: %w", err)
	}

	out := img.Bounds()
	return buf.Bytes(), out.Dx(), out.Dy(), nil
}
