package geometry

import (
	"fmt"
	"image"
	"math"
)

// Source identifies the generator that produced a Box.
type Source uint8

const (
	SourceContour Source = iota + 1
	SourceTextish
	SourceLines
	SourceOCR
)

// String returns the tag used in logs and JSON output.
func (s Source) String() string {
	switch s {
	case SourceContour:
		return "contour"
	case SourceTextish:
		return "textish"
	case SourceLines:
		return "lines"
	case SourceOCR:
		return "ocr"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Point is a 2D coordinate with sub-pixel precision.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a scored, axis-aligned candidate region in full-resolution pixels.
type Box struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge

	// Confidence may exceed 1 before the emitter clamps it.
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// NewBox validates the coordinates and returns ok=false for degenerate input.
func NewBox(x1, y1, x2, y2 int, confidence float64, src Source) (Box, bool) {
	if x2 <= x1 || y2 <= y1 {
		return Box{}, false
	}
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: confidence, Source: src}, true
}

// Width returns X2 - X1.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Area returns the box area, or 0 for a box with non-positive size.
func Area(b Box) int {
	return maxInt(0, b.X2-b.X1) * maxInt(0, b.Y2-b.Y1)
}

// Intersection returns the overlapping area of two boxes.
func Intersection(a, b Box) int {
	iw := minInt(a.X2, b.X2) - maxInt(a.X1, b.X1)
	ih := minInt(a.Y2, b.Y2) - maxInt(a.Y1, b.Y1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	return iw * ih
}

// IoU returns the intersection-over-union of two boxes.
// The small epsilon keeps the result defined when both areas are 0.
func IoU(a, b Box) float64 {
	inter := float64(Intersection(a, b))
	union := float64(Area(a)) + float64(Area(b)) - inter + 1e-6
	return inter / union
}

// ContainmentRatio returns the fraction of inner covered by outer.
// It is asymmetric: ContainmentRatio(small, big) is near 1 when small sits
// inside big, regardless of how much larger big is.
func ContainmentRatio(inner, outer Box) float64 {
	inter := float64(Intersection(inner, outer))
	return inter / (float64(Area(inner)) + 1e-2)
}

// AreaFraction returns the share of a width x height frame covered by b.
func AreaFraction(b Box, width, height int) float64 {
	return float64((b.X2-b.X1)*(b.Y2-b.Y1)) / (float64(width*height) + 1e-6)
}

// MarginRatio returns the smallest normalized gap between a box edge and
// the matching image edge, clamped at 0.
func MarginRatio(b Box, width, height int) float64 {
	w, h := float64(width), float64(height)
	m := math.Min(
		math.Min(float64(b.X1)/w, float64(b.Y1)/h),
		math.Min(float64(width-1-b.X2)/w, float64(height-1-b.Y2)/h),
	)
	return math.Max(0, m)
}

// BorderTouchCount returns how many of the four box edges lie within eps
// pixels of the corresponding image edge.
func BorderTouchCount(b Box, width, height, eps int) int {
	hits := 0
	if b.X1 <= eps {
		hits++
	}
	if b.Y1 <= eps {
		hits++
	}
	if b.X2 >= width-1-eps {
		hits++
	}
	if b.Y2 >= height-1-eps {
		hits++
	}
	return hits
}

// FromScaled maps a rectangle found on a downscaled image back to full
// resolution. Each coordinate is multiplied by inv, rounded, and clipped to
// [0, width-1] x [0, height-1].
func FromScaled(x1, y1, x2, y2, inv float64, width, height int) (int, int, int, int) {
	return clip(int(math.Round(x1*inv)), 0, width-1),
		clip(int(math.Round(y1*inv)), 0, height-1),
		clip(int(math.Round(x2*inv)), 0, width-1),
		clip(int(math.Round(y2*inv)), 0, height-1)
}

// AspectPrior scores how close a w x h rectangle is to 1:1. It is 1 for a
// square and decays linearly with |ln(w/h)| down to 0.
func AspectPrior(w, h int) float64 {
	ar := float64(w) / (float64(h) + 1e-6)
	return 1.0 - math.Min(1.0, math.Abs(math.Log(ar+1e-6)))
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
