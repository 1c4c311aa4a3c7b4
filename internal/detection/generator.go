package detection

import (
	"context"
	"image"

	"github.com/ironsheep/docfind/internal/geometry"
)

// Frame is the input to a scale-aware generator.
type Frame struct {
	// Image is the normalized photo, possibly downscaled.
	Image *image.NRGBA

	// FullWidth and FullHeight are the dimensions of the original photo.
	FullWidth  int
	FullHeight int

	// InvScale maps Image coordinates back to full resolution.
	InvScale float64
}

// Generator proposes candidate boxes for one frame.
type Generator interface {
	Source() geometry.Source
	Generate(f Frame) []geometry.Box
}

// TextLineDetector is an optional text-line capability, typically backed by
// an OCR engine. Polygons are returned in the pixel coordinates of img.
type TextLineDetector interface {
	Available() bool
	DetectTextLines(ctx context.Context, img image.Image) ([][]geometry.Point, error)
}

// NoTextLines is the TextLineDetector used when no OCR engine is configured.
type NoTextLines struct{}

// Available always reports false.
func (NoTextLines) Available() bool { return false }

// DetectTextLines returns no polygons.
func (NoTextLines) DetectTextLines(context.Context, image.Image) ([][]geometry.Point, error) {
	return nil, nil
}

// Defaults returns the scale-aware generators in pool order.
func Defaults() []Generator {
	return []Generator{ContourGenerator{}, TextishGenerator{}, LinesGenerator{}}
}

// emit maps a downscaled rectangle to full resolution and applies filter.
func emit(f Frame, x1, y1, x2, y2 float64, score func(b geometry.Box) float64, src geometry.Source, filter geometry.FrameFilter) (geometry.Box, bool) {
	fx1, fy1, fx2, fy2 := geometry.FromScaled(x1, y1, x2, y2, f.InvScale, f.FullWidth, f.FullHeight)
	b, ok := geometry.NewBox(fx1, fy1, fx2, fy2, 0, src)
	if !ok || filter.Reject(b, f.FullWidth, f.FullHeight) {
		return geometry.Box{}, false
	}
	b.Confidence = score(b)
	return b, true
}
