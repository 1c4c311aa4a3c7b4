package ensemble

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
)

// Result is one detection in the shape consumed by the compositing stages.
type Result struct {
	// BBoxXYXY is [x1, y1, x2, y2] normalized by the image size.
	BBoxXYXY [4]float64 `json:"bbox_xyxy"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	// Attributes is reserved for other detectors and never set here.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Emit converts pixel boxes to Results, keeping their order.
func Emit(boxes []geometry.Box, width, height int) []Result {
	out := make([]Result, 0, len(boxes))
	w, h := float64(width), float64(height)
	for _, b := range boxes {
		out = append(out, Result{
			BBoxXYXY: [4]float64{
				float64(b.X1) / w,
				float64(b.Y1) / h,
				float64(b.X2) / w,
				float64(b.Y2) / h,
			},
			Confidence: math.Max(0, math.Min(1, b.Confidence)),
		})
	}
	return out
}

// Pixels maps the normalized box back onto a width x height image.
func (r Result) Pixels(width, height int) image.Rectangle {
	w, h := float64(width), float64(height)
	return image.Rect(
		int(math.Round(r.BBoxXYXY[0]*w)),
		int(math.Round(r.BBoxXYXY[1]*h)),
		int(math.Round(r.BBoxXYXY[2]*w)),
		int(math.Round(r.BBoxXYXY[3]*h)),
	)
}

// Overlays labels each result "document 0.87" for imaging.DrawOverlays on
// a width x height rendering of the photo.
func Overlays(results []Result, width, height int) []imaging.Overlay {
	out := make([]imaging.Overlay, 0, len(results))
	for _, r := range results {
		out = append(out, imaging.Overlay{
			Rect:  r.Pixels(width, height),
			Label: fmt.Sprintf("document %.2f", r.Confidence),
		})
	}
	return out
}
