package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// ResizeLimit shrinks img so that its longer side is at most maxSide and
// returns the result with the applied scale factor. Images that already fit
// are copied unchanged with scale 1. Downscaling uses a box filter, which
// averages the source pixels under each output pixel.
func ResizeLimit(img image.Image, maxSide int) (*image.NRGBA, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if maxSide <= 0 || longest <= maxSide {
		return imaging.Clone(img), 1.0
	}

	s := float64(maxSide) / float64(longest)
	nw := max(1, int(float64(w)*s))
	nh := max(1, int(float64(h)*s))
	return imaging.Resize(img, nw, nh, imaging.Box), s
}
