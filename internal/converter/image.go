package converter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/yuanying/epub2txt/internal/epub"
)

const (
	defaultCoverJPEGQuality = 90
	defaultMaxPixels        = 100 * 1000 * 1000 // 100 megapixels
)

// CoverOptimizer shrinks oversized cover images.
type CoverOptimizer struct {
	MaxWidth    int // 0 disables resizing
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// NewCoverOptimizer creates a cover optimizer with defaults.
func NewCoverOptimizer(opts LoadOptions) *CoverOptimizer {
	quality := opts.CoverJPEGQuality
	if quality <= 0 {
		quality = defaultCoverJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &CoverOptimizer{
		MaxWidth:    opts.MaxCoverWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Optimize returns cover unchanged unless it is wider than MaxWidth, in which
// case it is resized and re-encoded in the format its MediaType names, so the
// data URI stays truthful. A cover that cannot be decoded is passed through
// and the reason is returned as a warning.
func (o *CoverOptimizer) Optimize(cover *epub.Cover) (*epub.Cover, string, error) {
	if cover == nil || o.MaxWidth <= 0 {
		return cover, "", nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(cover.Data))
	if err != nil {
		return cover, fmt.Sprintf("cover decode failed: %v", err), nil
	}
	if cfg.Width <= o.MaxWidth {
		return cover, "", nil
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if o.MaxPixels > 0 && pixels > uint64(o.MaxPixels) {
		return cover, fmt.Sprintf("cover too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels), nil
	}

	src, err := imaging.Decode(bytes.NewReader(cover.Data), imaging.AutoOrientation(true))
	if err != nil {
		return cover, fmt.Sprintf("cover decode failed: %v", err), nil
	}
	resized := imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	switch cover.MediaType {
	case "image/jpeg":
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(o.JPEGQuality))
	default:
		err = imaging.Encode(&buf, resized, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return cover, "", fmt.Errorf("cover encode failed: %w", err)
	}

	out := *cover
	out.Data = buf.Bytes()
	return &out, "", nil
}
