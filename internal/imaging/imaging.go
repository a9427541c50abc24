// Package imaging provides image processing for cover art. Chapter pages
// are never touched: the engine writes whatever bytes the remote source
// returned, opaque and unmodified. Covers are the one artifact kumo
// may resize or re-encode for gallery views.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration, common for comic CDNs
)

// Service provides cover image operations.
type Service struct{}

// NewService creates a new imaging Service.
func NewService() *Service {
	return &Service{}
}

// Resize scales an image down to fit within maxWidth x maxHeight,
// preserving aspect ratio, and returns it JPEG-encoded. Images already
// inside the bounds are re-encoded without scaling.
//
// Catmull-Rom is used for high-quality scaling.
func (s *Service) Resize(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes an image (PNG, WebP, GIF, ...) as JPEG.
func (s *Service) ConvertToJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
