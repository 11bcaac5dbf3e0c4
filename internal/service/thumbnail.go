package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/disintegration/imaging"
)

// ThumbnailProcessor handles thumbnail generation from product photos.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a thumbnail from the provided image data.
	// Returns the thumbnail bytes (as JPEG), original width, and original
	// height. The thumbnail fits within maxWidth x maxHeight while
	// preserving aspect ratio.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

// imagingProcessor implements ThumbnailProcessor using the imaging library.
type imagingProcessor struct{}

// NewImagingProcessor creates a new thumbnail processor using the imaging library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

// GenerateThumbnail decodes, resizes with Lanczos resampling, and re-encodes
// as JPEG. The output is always JPEG regardless of the input format.
func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(domain.ThumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), originalWidth, originalHeight, nil
}
