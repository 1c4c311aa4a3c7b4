package detection

import (
	"math"

	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
)

const (
	// edgeLevel is the edge-mix value at which a pixel counts as edge.
	edgeLevel = 16

	minPerimeterShare = 0.12
	minRectangularity = 0.70
	minContourArea    = 0.07
)

// ContourGenerator proposes the envelopes of nearly rectangular edge
// outlines, such as the border of a sheet of paper.
//
// # Algorithm
//
//  1. Grayscale, 5x5 Gaussian blur, and the edge mix (0.7 adaptive Canny +
//     0.3 normalized gradient magnitude)
//  2. Outer 8-connected components of edge pixels
//  3. Gates: hull perimeter >= 12% of (W+H), at least 4 hull vertices,
//     rectangularity (hull area / min-area rectangle area) >= 0.70
//  4. Envelope of the min-area rectangle, at least 7% of the frame
//
// Confidence = 0.15 + 0.45*rectangularity + 0.25*stroke + 0.10*aspect +
// 0.15*size, clamped to 1, where stroke is the mean edge mix inside the box.
type ContourGenerator struct{}

// Source returns geometry.SourceContour.
func (ContourGenerator) Source() geometry.Source { return geometry.SourceContour }

// Generate implements Generator.
func (ContourGenerator) Generate(f Frame) []geometry.Box {
	gray := imaging.GaussianBlur5(imaging.Grayscale(f.Image))
	mix, _ := imaging.EdgeMix(gray)
	ws, hs := mix.Rect.Dx(), mix.Rect.Dy()
	smallArea := float64(ws * hs)
	stroke := newIntegral(mix)

	var boxes []geometry.Box
	for _, c := range externalComponents(mix, edgeLevel) {
		hull := convexHull(c.extremePoints())
		if len(hull) < 4 {
			continue
		}
		if polygonPerimeter(hull) < minPerimeterShare*float64(ws+hs) {
			continue
		}

		corners, rectArea := minAreaRect(hull)
		rectangularity := polygonArea(hull) / math.Max(1, rectArea)
		if rectangularity < minRectangularity {
			continue
		}

		ex1, ey1, ex2, ey2 := envelope(corners[:])
		x1, y1, x2, y2 := int(ex1), int(ey1), int(ex2), int(ey2)
		if float64((x2-x1)*(y2-y1)) < minContourArea*smallArea {
			continue
		}

		s := stroke.mean(x1, y1, x2, y2) / 255
		b, ok := emit(f, float64(x1), float64(y1), float64(x2), float64(y2), func(b geometry.Box) float64 {
			size := math.Min(1, float64(geometry.Area(b))/(0.9*float64(f.FullWidth*f.FullHeight)))
			conf := 0.15 + 0.45*rectangularity + 0.25*s +
				0.10*geometry.AspectPrior(b.Width(), b.Height()) + 0.15*size
			return math.Min(1, conf)
		}, geometry.SourceContour, geometry.DefaultFrameFilter)
		if ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}
