package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
)

const (
	houghVotes    = 120
	houghMaxGap   = 20
	houghMinLen   = 20
	maxLinePeaks  = 50
	lineTolerance = 1.0
)

// Segment is a straight edge run found by the Hough transform.
type Segment struct {
	Start image.Point `json:"start"`
	End   image.Point `json:"end"`
}

// Length returns the Euclidean distance between the endpoints.
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.End.X-s.Start.X), float64(s.End.Y-s.Start.Y))
}

// LinesGenerator proposes the envelope of all long straight segments.
// Documents photographed on a table show up as a handful of long edges even
// when their outline is broken.
//
// # Algorithm
//
//  1. Bilateral filter (d=7, sigma 40/40), then Canny(50, 150)
//  2. Hough segments: 1px x 1 degree accumulator, >= 120 votes,
//     min length max(20, shorter side / 5), max gap 20
//  3. Fewer than two segments: no proposal; otherwise one box enclosing
//     every endpoint
//
// Confidence = min(0.9, 0.2 + 0.6*edges + 0.2*aspect), where edges is the
// share of edge pixels inside the box.
type LinesGenerator struct{}

// Source returns geometry.SourceLines.
func (LinesGenerator) Source() geometry.Source { return geometry.SourceLines }

// Generate implements Generator.
func (LinesGenerator) Generate(f Frame) []geometry.Box {
	gray := imaging.Bilateral(imaging.Grayscale(f.Image), 7, 40, 40)
	edges := imaging.Canny(gray, 50, 150)
	ws, hs := edges.Rect.Dx(), edges.Rect.Dy()

	segs := HoughSegments(edges, houghVotes, max(houghMinLen, min(ws, hs)/5), houghMaxGap)
	if len(segs) < 2 {
		return nil
	}

	pts := make([]geometry.Point, 0, 2*len(segs))
	for _, s := range segs {
		pts = append(pts,
			geometry.Point{X: float64(s.Start.X), Y: float64(s.Start.Y)},
			geometry.Point{X: float64(s.End.X), Y: float64(s.End.Y)})
	}
	x1, y1, x2, y2 := envelope(pts)

	e := newIntegral(edges).mean(int(x1), int(y1), int(x2), int(y2)) / 255
	b, ok := emit(f, x1, y1, x2, y2, func(b geometry.Box) float64 {
		return math.Min(0.9, 0.2+0.6*e+0.2*geometry.AspectPrior(b.Width(), b.Height()))
	}, geometry.SourceLines, geometry.LinesFrameFilter)
	if !ok {
		return nil
	}
	return []geometry.Box{b}
}

// HoughSegments finds straight runs of non-zero pixels in edges.
//
// # Algorithm (Hough Line Transform)
//
//  1. Voting: every edge pixel votes for each of 180 one-degree angles at
//     rho = round(x*cos + y*sin)
//  2. Peak Detection: cells with at least minVotes that are maximal within
//     a 5x5 neighborhood, strongest first (at most 50)
//  3. Tracing: edge pixels within 1px of each peak line are ordered along
//     the line and split where consecutive pixels are more than maxGap
//     apart; runs shorter than minLen are dropped
//
// The result is deterministic: ties between peaks keep accumulator order.
func HoughSegments(edges *image.Gray, minVotes, minLen, maxGap int) []Segment {
	width, height := edges.Rect.Dx(), edges.Rect.Dy()

	var points []image.Point
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v != 0 {
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}
	if len(points) == 0 {
		return nil
	}

	const numAngles = 180
	var cosT, sinT [numAngles]float64
	for t := 0; t < numAngles; t++ {
		angle := float64(t) * math.Pi / 180.0
		cosT[t], sinT[t] = math.Cos(angle), math.Sin(angle)
	}

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	numRho := 2*maxDist + 1
	accumulator := make([]int32, numRho*numAngles)

	// Vote in Hough space
	for _, p := range points {
		for t := 0; t < numAngles; t++ {
			rho := int(math.Round(float64(p.X)*cosT[t]+float64(p.Y)*sinT[t])) + maxDist
			accumulator[rho*numAngles+t]++
		}
	}

	type peak struct {
		rho   int
		theta int
		votes int32
	}
	var peaks []peak
	for r := 0; r < numRho; r++ {
		for t := 0; t < numAngles; t++ {
			v := accumulator[r*numAngles+t]
			if int(v) < minVotes {
				continue
			}
			// Check if local maximum
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := r + dr
					nt := (t + dt + numAngles) % numAngles
					if nr >= 0 && nr < numRho && accumulator[nr*numAngles+nt] > v {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: r - maxDist, theta: t, votes: v})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})
	if len(peaks) > maxLinePeaks {
		peaks = peaks[:maxLinePeaks]
	}

	var segments []Segment
	for _, pk := range peaks {
		segments = append(segments, traceLine(points, cosT[pk.theta], sinT[pk.theta], float64(pk.rho), minLen, maxGap)...)
	}
	return segments
}

// traceLine splits the pixels lying on the line x*cos + y*sin = rho into
// gap-separated runs and returns those at least minLen long.
func traceLine(points []image.Point, cosA, sinA, rho float64, minLen, maxGap int) []Segment {
	type onLine struct {
		p image.Point
		t float64
	}
	var line []onLine
	for _, p := range points {
		x, y := float64(p.X), float64(p.Y)
		if math.Abs(x*cosA+y*sinA-rho) <= lineTolerance {
			line = append(line, onLine{p: p, t: -x*sinA + y*cosA})
		}
	}
	if len(line) < 2 {
		return nil
	}
	sort.SliceStable(line, func(i, j int) bool { return line[i].t < line[j].t })

	var out []Segment
	start := 0
	flush := func(end int) {
		s := Segment{Start: line[start].p, End: line[end].p}
		if s.Length() >= float64(minLen) {
			out = append(out, s)
		}
	}
	for i := 1; i < len(line); i++ {
		if line[i].t-line[i-1].t > float64(maxGap) {
			flush(i - 1)
			start = i
		}
	}
	flush(len(line) - 1)
	return out
}
