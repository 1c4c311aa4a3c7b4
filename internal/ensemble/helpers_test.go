package ensemble

import (
	"image"
	"image/color"
	"io"

	"github.com/sirupsen/logrus"
)

var (
	tableColor = color.NRGBA{45, 45, 50, 255}
	paperColor = color.NRGBA{225, 222, 215, 255}
	inkColor   = color.NRGBA{20, 20, 25, 255}
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newCanvas(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Rect, c)
	return img
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// createDocumentPhoto draws a sheet of paper with lines of print on a dark
// table
func createDocumentPhoto(width, height int, sheet image.Rectangle) *image.NRGBA {
	img := newCanvas(width, height, tableColor)
	fill(img, sheet, paperColor)
	inner := sheet.Inset(40)
	for y := inner.Min.Y; y+6 <= inner.Max.Y; y += 18 {
		fill(img, image.Rect(inner.Min.X, y, inner.Max.X-(y%5)*20, y+6), inkColor)
	}
	return img
}

// createNoisePatch draws a small black and white checkerboard
func createNoisePatch(width, height int, patch image.Rectangle) *image.NRGBA {
	img := newCanvas(width, height, tableColor)
	for y := patch.Min.Y; y < patch.Max.Y; y++ {
		for x := patch.Min.X; x < patch.Max.X; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}
