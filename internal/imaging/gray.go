package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
)

// Luma weights (ITU-R BT.601), matching the conversion most scanners and
// camera pipelines use for their own grayscale previews.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts img to an origin-based 8-bit luminance plane.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// Histogram returns the 256-bin intensity histogram of a gray plane.
func Histogram(g *image.Gray) []int {
	return histogram.NewRGBAHistogram(g).R.Bins
}

// Median returns the median intensity of g. For an even pixel count it is
// the mean of the two middle samples.
func Median(g *image.Gray) float64 {
	bins := Histogram(g)
	n := 0
	for _, c := range bins {
		n += c
	}
	if n == 0 {
		return 0
	}

	lo := valueAtRank(bins, (n-1)/2)
	if n%2 == 1 {
		return float64(lo)
	}
	hi := valueAtRank(bins, n/2)
	return float64(lo+hi) / 2
}

// valueAtRank returns the intensity of the k-th smallest sample (0-based).
func valueAtRank(bins []int, k int) int {
	seen := 0
	for v, c := range bins {
		seen += c
		if seen > k {
			return v
		}
	}
	return len(bins) - 1
}

// GaussianBlur5 applies a 5x5 Gaussian blur to g.
//
// Uses the standard integer kernel:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273, used for normalization. Border pixels use clamped
// (replicated) edge values and results are rounded back to 8 bits.
func GaussianBlur5(g *image.Gray) *image.Gray {
	kernel := [5][5]int{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273

	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for ky := -2; ky <= 2; ky++ {
				row := g.Pix[clamp(y+ky, 0, h-1)*g.Stride:]
				for kx := -2; kx <= 2; kx++ {
					sum += int(row[clamp(x+kx, 0, w-1)]) * kernel[ky+2][kx+2]
				}
			}
			out.Pix[y*out.Stride+x] = uint8((sum + kernelSum/2) / kernelSum)
		}
	}
	return out
}

// Bilateral applies an edge-preserving bilateral filter over a circular
// window of the given diameter. sigmaColor controls how quickly intensity
// differences stop contributing; sigmaSpace does the same for distance.
func Bilateral(g *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	radius := diameter / 2
	if radius < 1 {
		radius = 1
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	var taps []tap
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(r * r * spaceCoeff)})
		}
	}

	var colorWeight [256]float64
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := int(g.Pix[y*g.Stride+x])
			var sum, wsum float64
			for _, t := range taps {
				v := int(g.Pix[clamp(y+t.dy, 0, h-1)*g.Stride+clamp(x+t.dx, 0, w-1)])
				d := v - center
				if d < 0 {
					d = -d
				}
				wt := t.weight * colorWeight[d]
				sum += float64(v) * wt
				wsum += wt
			}
			out.Pix[y*out.Stride+x] = uint8(math.Round(sum / wsum))
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
