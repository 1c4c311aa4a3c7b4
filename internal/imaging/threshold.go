package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
)

// OtsuLevel returns the threshold t that maximizes the between-class
// variance of g's histogram when pixels <= t form the background class.
// A single-valued image has no split; its value is returned so that
// nothing lies above the level.
func OtsuLevel(g *image.Gray) uint8 {
	bins := Histogram(g)

	total := 0
	var sumAll float64
	for v, c := range bins {
		total += c
		sumAll += float64(v * c)
	}
	if total == 0 {
		return 0
	}

	var (
		best     float64
		level    int
		wB       int
		sumB     float64
		foundAny bool
	)
	for t := 0; t < 256; t++ {
		wB += bins[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * bins[t])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if !foundAny || between > best {
			best = between
			level = t
			foundAny = true
		}
	}
	if !foundAny {
		for v := 255; v >= 0; v-- {
			if bins[v] > 0 {
				return uint8(v)
			}
		}
	}
	return uint8(level)
}

// ThresholdOtsu binarizes g at its Otsu level: pixels strictly above the
// level become 255, the rest 0.
func ThresholdOtsu(g *image.Gray) *image.Gray {
	t := OtsuLevel(g)
	if t == 255 {
		return image.NewGray(image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy()))
	}
	return originGray(segment.Threshold(g, t+1))
}

// originGray returns g rebased so its bounds start at (0,0).
func originGray(g *image.Gray) *image.Gray {
	if g.Rect.Min == (image.Point{}) {
		return g
	}
	return &image.Gray{Pix: g.Pix, Stride: g.Stride, Rect: image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy())}
}
