package detection

import "image"

// component is an 8-connected group of foreground pixels.
type component struct {
	// rows holds the leftmost and rightmost foreground x of each row the
	// component occupies, indexed from bounds.Min.Y. The convex hull of
	// these points equals the hull of the whole component.
	rows [][2]int

	// bounds encloses every pixel; Max is exclusive.
	bounds image.Rectangle

	pixels int
}

// extremePoints returns the per-row extremes as points.
func (c *component) extremePoints() []image.Point {
	pts := make([]image.Point, 0, 2*len(c.rows))
	for i, r := range c.rows {
		y := c.bounds.Min.Y + i
		if r[0] > r[1] {
			continue
		}
		pts = append(pts, image.Point{X: r[0], Y: y})
		if r[1] != r[0] {
			pts = append(pts, image.Point{X: r[1], Y: y})
		}
	}
	return pts
}

// externalComponents groups the pixels of mask at or above level into
// 8-connected components and returns those reachable from outside: a
// component lying entirely inside a hole of another one is skipped.
func externalComponents(mask *image.Gray, level uint8) []*component {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			fg[y*w+x] = v >= level
		}
	}

	outside := outerBackground(fg, w, h)
	visited := make([]bool, w*h)
	var out []*component

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !fg[i] || visited[i] {
				continue
			}
			c, external := floodFill(fg, visited, outside, x, y, w, h)
			if external {
				out = append(out, c)
			}
		}
	}
	return out
}

// floodFill collects the component containing (startX, startY) and reports
// whether it touches the image border or the outer background.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components.
func floodFill(fg, visited, outside []bool, startX, startY, width, height int) (*component, bool) {
	c := &component{bounds: image.Rect(startX, startY, startX+1, startY+1)}
	type pixel struct{ x, y int }
	var pixels []pixel
	external := false

	stack := []pixel{{startX, startY}}
	visited[startY*width+startX] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pixels = append(pixels, p)

		if p.x < c.bounds.Min.X {
			c.bounds.Min.X = p.x
		}
		if p.x >= c.bounds.Max.X {
			c.bounds.Max.X = p.x + 1
		}
		if p.y < c.bounds.Min.Y {
			c.bounds.Min.Y = p.y
		}
		if p.y >= c.bounds.Max.Y {
			c.bounds.Max.Y = p.y + 1
		}

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					external = true
					continue
				}
				j := ny*width + nx
				if !fg[j] {
					if outside[j] && (dx == 0 || dy == 0) {
						external = true
					}
					continue
				}
				if !visited[j] {
					visited[j] = true
					stack = append(stack, pixel{nx, ny})
				}
			}
		}
	}

	c.pixels = len(pixels)
	c.rows = make([][2]int, c.bounds.Dy())
	for i := range c.rows {
		c.rows[i] = [2]int{width, -1}
	}
	for _, p := range pixels {
		r := &c.rows[p.y-c.bounds.Min.Y]
		if p.x < r[0] {
			r[0] = p.x
		}
		if p.x > r[1] {
			r[1] = p.x
		}
	}
	return c, external
}

// outerBackground marks background pixels 4-connected to the image border.
func outerBackground(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	var stack []int
	seed := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			seed(x-1, y)
		}
		if x < width-1 {
			seed(x+1, y)
		}
		if y > 0 {
			seed(x, y-1)
		}
		if y < height-1 {
			seed(x, y+1)
		}
	}
	return outside
}
