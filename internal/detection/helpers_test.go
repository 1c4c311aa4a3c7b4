package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/docfind/internal/geometry"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Rect, c)
	return img
}

// fillRect paints r (clipped to the image) with c
func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// createDocumentImage draws a light sheet on a dark table
func createDocumentImage(width, height int, sheet image.Rectangle) *image.NRGBA {
	img := createTestImage(width, height, color.NRGBA{40, 40, 40, 255})
	fillRect(img, sheet, color.NRGBA{220, 220, 220, 255})
	return img
}

// fullFrame wraps img as an unscaled Frame
func fullFrame(img *image.NRGBA) Frame {
	return Frame{Image: img, FullWidth: img.Rect.Dx(), FullHeight: img.Rect.Dy(), InvScale: 1}
}

// grayPlane builds a grayscale image from a per-pixel function
func grayPlane(width, height int, fn func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Pix[y*g.Stride+x] = fn(x, y)
		}
	}
	return g
}

func boxOf(r image.Rectangle) geometry.Box {
	return geometry.Box{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// requireSingle fails unless boxes holds exactly one box
func requireSingle(t *testing.T, boxes []geometry.Box) geometry.Box {
	t.Helper()
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1: %+v", len(boxes), boxes)
	}
	return boxes[0]
}
