package detection

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/ironsheep/docfind/internal/geometry"
)

// OCRGenerator proposes the envelope of all text lines reported by an
// external text-line detector. It runs once per photo at native resolution.
type OCRGenerator struct {
	Detector TextLineDetector
}

// Source returns geometry.SourceOCR.
func (OCRGenerator) Source() geometry.Source { return geometry.SourceOCR }

// Available reports whether the underlying detector can run.
func (g OCRGenerator) Available() bool {
	return g.Detector != nil && g.Detector.Available()
}

// Generate returns at most one box. Confidence = 0.5 + 0.5*coverage, where
// coverage is the share of the envelope covered by text polygons.
// A detector error is returned unchanged so the caller can decide to skip
// OCR for this photo.
func (g OCRGenerator) Generate(ctx context.Context, img image.Image) ([]geometry.Box, error) {
	if !g.Available() {
		return nil, nil
	}
	polys, err := g.Detector.DetectTextLines(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("text line detection: %w", err)
	}
	b, ok := OCREnvelope(polys, img.Bounds().Dx(), img.Bounds().Dy())
	if !ok {
		return nil, nil
	}
	return []geometry.Box{b}, nil
}

// OCREnvelope turns text polygons into a single scored box, or ok=false
// when there are none or the envelope is rejected as full-frame.
func OCREnvelope(polys [][]geometry.Point, width, height int) (geometry.Box, bool) {
	var all []geometry.Point
	for _, p := range polys {
		all = append(all, p...)
	}
	if len(all) == 0 {
		return geometry.Box{}, false
	}

	ex1, ey1, ex2, ey2 := envelope(all)
	x1 := int(math.Max(0, ex1))
	y1 := int(math.Max(0, ey1))
	x2 := int(math.Min(float64(width-1), ex2))
	y2 := int(math.Min(float64(height-1), ey2))

	b, ok := geometry.NewBox(x1, y1, x2, y2, 0, geometry.SourceOCR)
	if !ok || geometry.OCRFrameFilter.Reject(b, width, height) {
		return geometry.Box{}, false
	}

	b.Confidence = math.Min(1, 0.5+0.5*polygonCoverage(polys, b))
	return b, true
}

// polygonCoverage rasterizes polys into a mask over b and returns the share
// of b's pixels that are at least half covered.
func polygonCoverage(polys [][]geometry.Point, b geometry.Box) float64 {
	w, h := b.Width(), b.Height()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z := vector.NewRasterizer(w, h)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		// One polygon per pass so overlapping polygons of opposite
		// winding do not cancel out.
		z.Reset(w, h)
		z.MoveTo(float32(poly[0].X)-float32(b.X1), float32(poly[0].Y)-float32(b.Y1))
		for _, p := range poly[1:] {
			z.LineTo(float32(p.X)-float32(b.X1), float32(p.Y)-float32(b.Y1))
		}
		z.ClosePath()
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}

	covered := 0
	for _, a := range mask.Pix {
		if a >= 128 {
			covered++
		}
	}
	return float64(covered) / float64(w*h)
}
