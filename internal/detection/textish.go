package detection

import (
	"math"

	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
)

const (
	minTextishArea = 0.03
	maxTextishArea = 0.80
)

// TextishGenerator proposes blobs of dense local contrast. Printed text
// blurs into such blobs once the gradient is thresholded and dilated.
//
// # Algorithm
//
//  1. Morphological gradient with a k x k rectangle, k = max(3, 1% of the
//     longer side) made odd
//  2. Otsu threshold, then one dilation with the same kernel
//  3. Bounding boxes of outer components covering 3%-80% of the frame
//
// Confidence = 0.25 + 0.55*density + 0.20*aspect, where density is the
// share of mask pixels inside the box and aspect is taken from the box in
// frame pixels.
type TextishGenerator struct{}

// Source returns geometry.SourceTextish.
func (TextishGenerator) Source() geometry.Source { return geometry.SourceTextish }

// Generate implements Generator.
func (TextishGenerator) Generate(f Frame) []geometry.Box {
	gray := imaging.Grayscale(f.Image)
	ws, hs := gray.Rect.Dx(), gray.Rect.Dy()
	k := max(3, int(0.01*float64(max(ws, hs)))|1)

	mask := imaging.Dilate(imaging.ThresholdOtsu(imaging.MorphGradient(gray, k)), k)
	density := newIntegral(mask)
	smallArea := float64(ws * hs)

	var boxes []geometry.Box
	for _, c := range externalComponents(mask, 1) {
		r := c.bounds
		a := float64(r.Dx() * r.Dy())
		if a < minTextishArea*smallArea || a > maxTextishArea*smallArea {
			continue
		}

		d := density.mean(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y) / 255
		aspect := geometry.AspectPrior(r.Dx(), r.Dy())
		b, ok := emit(f, float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y), func(geometry.Box) float64 {
			return math.Min(1, 0.25+0.55*d+0.20*aspect)
		}, geometry.SourceTextish, geometry.DefaultFrameFilter)
		if ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}
