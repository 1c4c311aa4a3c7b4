package imaging

import (
	"image"
	"math"
)

// Lower bounds for the median-derived Canny thresholds used by EdgeMix.
// One-level quantization ripples left by contrast equalization produce
// L1 gradients of at most 8; the floors keep them out of the edge map.
const (
	minAutoLow  = 20
	minAutoHigh = 60
)

// Gradient holds per-pixel Sobel derivatives of a gray plane.
type Gradient struct {
	Width, Height int
	GX, GY        []float64
}

// Sobel computes 3x3 Sobel derivatives of g with clamped borders.
func Sobel(g *image.Gray) *Gradient {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	grad := &Gradient{
		Width:  w,
		Height: h,
		GX:     make([]float64, w*h),
		GY:     make([]float64, w*h),
	}

	at := func(x, y int) float64 {
		return float64(g.Pix[clamp(y, 0, h-1)*g.Stride+clamp(x, 0, w-1)])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			grad.GX[y*w+x] = (tr + 2*mr + br) - (tl + 2*ml + bl)
			grad.GY[y*w+x] = (bl + 2*bc + br) - (tl + 2*tc + tr)
		}
	}
	return grad
}

// Magnitude returns sqrt(gx² + gy²) rescaled so the strongest response maps
// to 255. Values are truncated, not rounded.
func (grad *Gradient) Magnitude() *image.Gray {
	mag := make([]float64, len(grad.GX))
	peak := 0.0
	for i := range mag {
		mag[i] = math.Hypot(grad.GX[i], grad.GY[i])
		if mag[i] > peak {
			peak = mag[i]
		}
	}

	out := image.NewGray(image.Rect(0, 0, grad.Width, grad.Height))
	scale := 255 / (peak + 1e-6)
	for i, m := range mag {
		out.Pix[i] = uint8(math.Min(255, m*scale))
	}
	return out
}

// Canny runs non-maximum suppression and hysteresis over the Sobel
// gradient of g. Magnitudes use the L1 norm |gx|+|gy|. A pixel is a weak
// candidate when its magnitude exceeds low and a seed when it exceeds high;
// weak pixels survive only when 8-connected to a seed. g is not blurred
// first.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	grad := Sobel(g)
	w, h := grad.Width, grad.Height

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Abs(grad.GX[i]) + math.Abs(grad.GY[i])
	}

	// Non-maximum suppression
	const (
		none uint8 = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			// Determine neighbors to compare based on gradient direction.
			// The first neighbor must be strictly smaller so a plateau yields
			// a one-pixel-wide ridge.
			angle := math.Atan2(grad.GY[i], grad.GX[i])
			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = mag[i-1]
				n2 = mag[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = mag[i-w-1]
				n2 = mag[i+w+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = mag[i-w]
				n2 = mag[i+w]
			} else {
				n1 = mag[i-w+1]
				n2 = mag[i+w-1]
			}
			if m > n1 && m >= n2 {
				if m > high {
					state[i] = strong
				} else {
					state[i] = weak
				}
			}
		}
	}

	// Hysteresis: flood from every seed through weak pixels.
	out := image.NewGray(image.Rect(0, 0, w, h))
	stack := make([]int, 0, 1024)
	for i, s := range state {
		if s == strong {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak && out.Pix[j] == 0 {
					out.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// AutoCannyThresholds derives hysteresis thresholds from the median of a
// normalized gradient-magnitude map: 0.33x and 1.33x the median, floored so
// near-flat images do not turn quantization noise into edges.
func AutoCannyThresholds(median float64) (low, high float64) {
	low = math.Max(minAutoLow, math.Floor(math.Max(0, 0.33*median)))
	high = math.Max(minAutoHigh, math.Floor(math.Min(255, 1.33*median)))
	return low, high
}

// EdgeMix blends the normalized gradient magnitude of g with adaptive
// Canny edges: round(0.7*canny + 0.3*magnitude). It returns the blend and
// the Canny map it was built from. g should already be smoothed.
func EdgeMix(g *image.Gray) (mix, canny *image.Gray) {
	mag := Sobel(g).Magnitude()
	low, high := AutoCannyThresholds(Median(mag))
	canny = Canny(g, low, high)

	w, h := mag.Rect.Dx(), mag.Rect.Dy()
	mix = image.NewGray(image.Rect(0, 0, w, h))
	for i := range mix.Pix {
		v := 0.7*float64(canny.Pix[i]) + 0.3*float64(mag.Pix[i])
		mix.Pix[i] = uint8(math.Min(255, math.Round(v)))
	}
	return mix, canny
}

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges. In "mix" mode the output is
// the blended edge map the contour generator segments, so intermediate gray
// levels are gradient strength.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// Mode is "canny" or "mix".
	Mode string `json:"mode"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect renders the edge map of an image for inspection.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow, thresholdHigh: hysteresis thresholds on the L1 gradient.
//     Used only in "canny" mode. Typical values: 50 and 150.
//   - mix: when true, render the blended map used by contour proposals
//     (thresholds are derived automatically) instead of plain Canny edges.
//
// # Algorithm
//
//  1. Grayscale conversion with ITU-R BT.601 weights
//  2. 5x5 Gaussian blur to reduce noise
//  3. Sobel gradients, non-maximum suppression and hysteresis
//  4. In mix mode, blend with the normalized gradient magnitude
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int, mix bool) (*EdgeDetectResult, error) {
	blurred := GaussianBlur5(Grayscale(img))

	var out *image.Gray
	mode := "canny"
	if mix {
		out, _ = EdgeMix(blurred)
		mode = "mix"
	} else {
		out = Canny(blurred, float64(thresholdLow), float64(thresholdHigh))
	}

	encoded, err := encodePNGBase64(out)
	if err != nil {
		return nil, err
	}

	return &EdgeDetectResult{
		Width:       out.Rect.Dx(),
		Height:      out.Rect.Dy(),
		Mode:        mode,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
