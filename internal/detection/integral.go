package detection

import "image"

// integral is a summed-area table over a grayscale plane.
type integral struct {
	w, h int
	sum  []uint64 // (w+1) x (h+1), row-major
}

func newIntegral(g *image.Gray) *integral {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	s := &integral{w: w, h: h, sum: make([]uint64, (w+1)*(h+1))}
	for y := 0; y < h; y++ {
		var row uint64
		src := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range src {
			row += uint64(v)
			s.sum[(y+1)*(w+1)+x+1] = s.sum[y*(w+1)+x+1] + row
		}
	}
	return s
}

// mean returns the average pixel value over [x1,x2) x [y1,y2), clipped to
// the plane, or 0 for an empty region.
func (s *integral) mean(x1, y1, x2, y2 int) float64 {
	x1, x2 = max(0, x1), min(s.w, x2)
	y1, y2 = max(0, y1), min(s.h, y2)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	stride := s.w + 1
	total := s.sum[y2*stride+x2] - s.sum[y1*stride+x2] - s.sum[y2*stride+x1] + s.sum[y1*stride+x1]
	return float64(total) / float64((x2-x1)*(y2-y1))
}
