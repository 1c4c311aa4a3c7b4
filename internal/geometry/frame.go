package geometry

// FrameFilter rejects boxes that effectively describe the entire image.
type FrameFilter struct {
	// AreaCap is the area fraction at or above which a box is rejected.
	AreaCap float64 `yaml:"area_cap" json:"area_cap"`

	// MarginCap is the minimum margin ratio below which a box that also
	// touches two or more borders is rejected.
	MarginCap float64 `yaml:"margin_cap" json:"margin_cap"`
}

var (
	// DefaultFrameFilter is used for the contour and text-density
	// generators and for the final pass over the pooled candidates.
	DefaultFrameFilter = FrameFilter{AreaCap: 0.85, MarginCap: 0.02}

	// LinesFrameFilter is stricter: line envelopes tend to sprawl across
	// the frame when background structure is picked up.
	LinesFrameFilter = FrameFilter{AreaCap: 0.75, MarginCap: 0.03}

	// OCRFrameFilter applies to the envelope of all detected text lines.
	OCRFrameFilter = FrameFilter{AreaCap: 0.80, MarginCap: 0.03}
)

// BorderTolerance returns the pixel tolerance used to decide whether a box
// edge touches an image edge: max(2, 1% of the longer side).
func BorderTolerance(width, height int) int {
	return maxInt(2, int(0.01*float64(maxInt(width, height))))
}

// Reject reports whether b should be discarded as full-frame-like.
func (f FrameFilter) Reject(b Box, width, height int) bool {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return true
	}
	if AreaFraction(b, width, height) >= f.AreaCap {
		return true
	}
	if MarginRatio(b, width, height) < f.MarginCap {
		if BorderTouchCount(b, width, height, BorderTolerance(width, height)) >= 2 {
			return true
		}
	}
	return false
}
