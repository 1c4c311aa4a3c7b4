package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/docfind/internal/geometry"
)

// convexHull returns the convex hull of pts in counter-clockwise order
// (monotone chain). Collinear points are dropped.
func convexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}
	sorted := append([]image.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	hull := make([]image.Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func cross(o, a, b image.Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// polygonArea returns the unsigned shoelace area.
func polygonArea(poly []image.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	s := 0
	for i := range poly {
		j := (i + 1) % len(poly)
		s += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(float64(s)) / 2
}

// polygonPerimeter returns the length of the closed polygon.
func polygonPerimeter(poly []image.Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	var p float64
	for i := range poly {
		j := (i + 1) % len(poly)
		p += math.Hypot(float64(poly[j].X-poly[i].X), float64(poly[j].Y-poly[i].Y))
	}
	return p
}

// minAreaRect returns the corners and area of the smallest rotated
// rectangle enclosing a convex hull (rotating calipers: one side of the
// optimum is collinear with a hull edge).
func minAreaRect(hull []image.Point) ([4]geometry.Point, float64) {
	var corners [4]geometry.Point
	if len(hull) == 0 {
		return corners, 0
	}

	best := math.Inf(1)
	for i := range hull {
		j := (i + 1) % len(hull)
		ex := float64(hull[j].X - hull[i].X)
		ey := float64(hull[j].Y - hull[i].Y)
		n := math.Hypot(ex, ey)
		if n == 0 {
			continue
		}
		ux, uy := ex/n, ey/n
		vx, vy := -uy, ux

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.X), float64(p.Y)
			u := px*ux + py*uy
			v := px*vx + py*vy
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < best {
			best = area
			at := func(u, v float64) geometry.Point {
				return geometry.Point{X: u*ux + v*vx, Y: u*uy + v*vy}
			}
			corners = [4]geometry.Point{at(minU, minV), at(maxU, minV), at(maxU, maxV), at(minU, maxV)}
		}
	}

	if math.IsInf(best, 1) {
		p := geometry.Point{X: float64(hull[0].X), Y: float64(hull[0].Y)}
		return [4]geometry.Point{p, p, p, p}, 0
	}
	return corners, best
}

// envelope returns the axis-aligned bounds of pts.
func envelope(pts []geometry.Point) (x1, y1, x2, y2 float64) {
	x1, y1 = math.Inf(1), math.Inf(1)
	x2, y2 = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		x1, y1 = math.Min(x1, p.X), math.Min(y1, p.Y)
		x2, y2 = math.Max(x2, p.X), math.Max(y2, p.Y)
	}
	return x1, y1, x2, y2
}
