package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Info is what Probe could learn about an asset.
type Info struct {
	Width  int
	Height int
	Is360  bool
}

// min360Width is the narrowest equirectangular frame treated as a 360° capture.
const min360Width = 3000

// Probe reads pixel dimensions from r. Formats without a registered decoder
// (RAW, HEIC, video) return a zero Info and no error.
func Probe(r io.Reader) (Info, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("probe dimensions: %w", err)
	}
	return Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Is360:  IsEquirectangular(cfg.Width, cfg.Height),
	}, nil
}

// IsEquirectangular reports whether the dimensions have the 2:1 aspect of a
// spherical panorama.
func IsEquirectangular(width, height int) bool {
	return height > 0 && width == 2*height && width >= min360Width
}
