package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
)

// NormalizeOptions controls illumination normalization.
type NormalizeOptions struct {
	// ClipLimit bounds each CLAHE tile histogram bin at ClipLimit times the
	// uniform bin height before equalization.
	ClipLimit float64 `yaml:"clip_limit" json:"clip_limit"`

	// Tiles is the number of CLAHE tiles along each axis.
	Tiles int `yaml:"tiles" json:"tiles"`
}

// DefaultNormalizeOptions returns clip limit 3.0 over an 8x8 tile grid.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{ClipLimit: 3.0, Tiles: 8}
}

// ChannelMeans returns the mean R, G and B values of img on a 0-255 scale.
func ChannelMeans(img image.Image) (r, g, b float64) {
	src := clone.AsShallowRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0
	}

	var sr, sg, sb uint64
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			sr += uint64(row[x*4])
			sg += uint64(row[x*4+1])
			sb += uint64(row[x*4+2])
		}
	}
	n := float64(w * h)
	return float64(sr) / n, float64(sg) / n, float64(sb) / n
}

// GrayWorld scales each color channel so that its mean equals the mean of
// the three channel means, removing a global color cast.
func GrayWorld(img image.Image) *image.RGBA {
	mr, mg, mb := ChannelMeans(img)
	mr, mg, mb = mr+1e-6, mg+1e-6, mb+1e-6
	gm := (mr + mg + mb) / 3

	gr, gg, gb := gm/mr, gm/mg, gm/mb
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: scaleChannel(c.R, gr),
			G: scaleChannel(c.G, gg),
			B: scaleChannel(c.B, gb),
			A: c.A,
		}
	})
}

func scaleChannel(v uint8, gain float64) uint8 {
	return uint8(math.Min(255, (float64(v)+1e-6)*gain))
}

// Normalize applies gray-world white balance followed by CLAHE on the
// lightness channel of CIE L*a*b*. Chroma is preserved. The result has the
// same size as img and is origin-based.
func Normalize(img image.Image, opts NormalizeOptions) *image.NRGBA {
	balanced := GrayWorld(img)
	w, h := balanced.Rect.Dx(), balanced.Rect.Dy()

	light := image.NewGray(image.Rect(0, 0, w, h))
	chromaA := make([]float32, w*h)
	chromaB := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := balanced.Pix[y*balanced.Stride:]
		for x := 0; x < w; x++ {
			c := colorful.Color{
				R: float64(row[x*4]) / 255,
				G: float64(row[x*4+1]) / 255,
				B: float64(row[x*4+2]) / 255,
			}
			l, a, b := c.Lab()
			i := y*w + x
			light.Pix[i] = uint8(math.Round(math.Min(1, math.Max(0, l)) * 255))
			chromaA[i] = float32(a)
			chromaB[i] = float32(b)
		}
	}

	light = CLAHE(light, opts.ClipLimit, opts.Tiles)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := balanced.Pix[y*balanced.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			c := colorful.Lab(float64(light.Pix[i])/255, float64(chromaA[i]), float64(chromaB[i]))
			r, g, b := c.Clamped().RGB255()
			dst[x*4] = r
			dst[x*4+1] = g
			dst[x*4+2] = b
			dst[x*4+3] = src[x*4+3]
		}
	}
	return out
}

// CLAHE performs contrast-limited adaptive histogram equalization on g.
//
// The image is split into tiles x tiles regions (edges are mirrored when the
// size is not a multiple of the grid). Each region's histogram is clipped at
// clipLimit times the uniform bin height, the excess is spread over all
// bins, and the cumulative histogram becomes that region's lookup table.
// Output pixels bilinearly blend the tables of the four nearest regions.
func CLAHE(g *image.Gray, clipLimit float64, tiles int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if tiles < 1 {
		tiles = 1
	}
	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles
	tileArea := tileW * tileH

	limit := 0
	if clipLimit > 0 {
		limit = max(1, int(clipLimit*float64(tileArea)/256))
	}

	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			var hist [256]int
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				row := g.Pix[reflect101(y, h)*g.Stride:]
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[row[reflect101(x, w)]]++
				}
			}
			if limit > 0 {
				clipHistogram(&hist, limit)
			}

			lut := &luts[ty*tiles+tx]
			scale := 255 / float64(tileArea)
			sum := 0
			for v := 0; v < 256; v++ {
				sum += hist[v]
				lut[v] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		tyf := float64(y)/float64(tileH) - 0.5
		ty1 := int(math.Floor(tyf))
		ya := tyf - float64(ty1)
		ty2 := min(ty1+1, tiles-1)
		ty1 = max(ty1, 0)

		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			txf := float64(x)/float64(tileW) - 0.5
			tx1 := int(math.Floor(txf))
			xa := txf - float64(tx1)
			tx2 := min(tx1+1, tiles-1)
			tx1 = max(tx1, 0)

			v := row[x]
			top := float64(luts[ty1*tiles+tx1][v])*(1-xa) + float64(luts[ty1*tiles+tx2][v])*xa
			bottom := float64(luts[ty2*tiles+tx1][v])*(1-xa) + float64(luts[ty2*tiles+tx2][v])*xa
			out.Pix[y*out.Stride+x] = uint8(math.Min(255, math.Round(top*(1-ya)+bottom*ya)))
		}
	}
	return out
}

// clipHistogram caps every bin at limit and redistributes the clipped
// counts: an equal share to every bin, then the remainder one at a time at
// evenly spaced bins.
func clipHistogram(hist *[256]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}

	batch := clipped / 256
	residual := clipped - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(256/residual, 1)
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring
// around the edge pixels without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
