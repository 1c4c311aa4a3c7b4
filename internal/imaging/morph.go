package imaging

import "image"

// Dilate returns the maximum of g over a k x k rectangle centred on each
// pixel. Pixels outside the image do not take part. The rectangle is
// separable, so the filter runs as a horizontal pass followed by a vertical
// one.
func Dilate(g *image.Gray, k int) *image.Gray {
	return rectFilter(g, k, func(a, b uint8) bool { return a > b })
}

// Erode returns the minimum of g over a k x k rectangle.
func Erode(g *image.Gray, k int) *image.Gray {
	return rectFilter(g, k, func(a, b uint8) bool { return a < b })
}

// MorphGradient returns Dilate(g, k) - Erode(g, k), which lights up
// wherever intensity changes within a k-pixel neighborhood.
func MorphGradient(g *image.Gray, k int) *image.Gray {
	d := Dilate(g, k)
	e := Erode(g, k)
	for i := range d.Pix {
		d.Pix[i] -= e.Pix[i]
	}
	return d
}

func rectFilter(g *image.Gray, k int, better func(a, b uint8) bool) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	r := k / 2
	if r < 1 {
		out := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+w], g.Pix[y*g.Stride:])
		}
		return out
	}

	tmp := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			v := row[x]
			for xx := max(0, x-r); xx <= min(w-1, x+r); xx++ {
				if better(row[xx], v) {
					v = row[xx]
				}
			}
			tmp[y*w+x] = v
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := tmp[y*w+x]
			for yy := max(0, y-r); yy <= min(h-1, y+r); yy++ {
				if better(tmp[yy*w+x], v) {
					v = tmp[yy*w+x]
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
