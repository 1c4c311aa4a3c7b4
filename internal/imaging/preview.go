package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay is one rectangle to highlight in a preview.
type Overlay struct {
	Rect  image.Rectangle
	Label string
}

// PreviewOptions controls overlay colors.
type PreviewOptions struct {
	Fill    color.NRGBA // Translucent fill and label tab
	Border  color.NRGBA // Rectangle outline
	Text    color.NRGBA // Label text
	Opacity float64     // Weight of the fill layer in the final blend
}

// DefaultPreviewOptions returns green fills at 20% over dark-green borders.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{
		Fill:    color.NRGBA{0, 255, 0, 255},
		Border:  color.NRGBA{0, 140, 0, 255},
		Text:    color.NRGBA{0, 0, 0, 255},
		Opacity: 0.2,
	}
}

// DrawOverlays returns a copy of img with every overlay filled, outlined and
// labelled.
//
// Fills and label tabs go onto one layer and outlines and text onto
// another; the two are blended with weight opts.Opacity on the fill layer,
// so the photo stays visible under the highlight. Border thickness is
// max(2, round(0.3% of the longer side)). Labels are drawn in a 7x13 bitmap
// font, scaled up with the image so they stay legible on large photos.
func DrawOverlays(img image.Image, overlays []Overlay, opts PreviewOptions) *image.NRGBA {
	out := imaging.Clone(img)
	fill := imaging.Clone(img)
	bounds := out.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h)

	thickness := max(2, int(math.Round(0.003*float64(longest))))
	textScale := max(1, int(math.Round(float64(longest)/800)))
	face := basicfont.Face7x13

	for _, o := range overlays {
		r := o.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		draw.Draw(fill, r, image.NewUniform(opts.Fill), image.Point{}, draw.Src)
		strokeRect(out, r, thickness, opts.Border)

		if o.Label == "" {
			continue
		}
		tw := font.MeasureString(face, o.Label).Ceil() * textScale
		th := face.Metrics().Height.Ceil() * textScale
		tab := image.Rect(r.Min.X, max(0, r.Min.Y-th-8), min(w, r.Min.X+tw+10), min(h, r.Min.Y+th+8))
		draw.Draw(fill, tab, image.NewUniform(opts.Fill), image.Point{}, draw.Src)
		drawText(out, image.Pt(tab.Min.X+5, tab.Min.Y+4), o.Label, textScale, opts.Text)
	}

	blend(out, fill, opts.Opacity)
	return out
}

// PreviewResult contains the rendered preview as base64 PNG.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Overlays    int    `json:"overlays"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderPreview draws overlays with DrawOverlays and encodes the result.
func RenderPreview(img image.Image, overlays []Overlay, opts PreviewOptions) (*PreviewResult, error) {
	out := DrawOverlays(img, overlays, opts)
	encoded, err := encodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Width:       out.Rect.Dx(),
		Height:      out.Rect.Dy(),
		Overlays:    len(overlays),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// strokeRect draws a rectangle outline of the given thickness inside r.
func strokeRect(dst *image.NRGBA, r image.Rectangle, thickness int, c color.NRGBA) {
	src := image.NewUniform(c)
	t := min(thickness, r.Dx(), r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// drawText renders text with its top-left corner at pt, magnified by scale.
func drawText(dst *image.NRGBA, pt image.Point, text string, scale int, c color.NRGBA) {
	face := basicfont.Face7x13
	m := face.Metrics()
	tw := font.MeasureString(face, text).Ceil()
	th := m.Height.Ceil()
	if tw == 0 || th == 0 {
		return
	}

	mask := image.NewAlpha(image.Rect(0, 0, tw, th))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(text)

	scaled := imaging.Resize(mask, tw*scale, th*scale, imaging.NearestNeighbor)
	target := image.Rect(pt.X, pt.Y, pt.X+tw*scale, pt.Y+th*scale)
	draw.DrawMask(dst, target, image.NewUniform(c), image.Point{}, scaled, image.Point{}, draw.Over)
}

// blend sets dst = opacity*layer + (1-opacity)*dst, channel by channel.
func blend(dst, layer *image.NRGBA, opacity float64) {
	for i := range dst.Pix {
		if i%4 == 3 {
			continue
		}
		v := opacity*float64(layer.Pix[i]) + (1-opacity)*float64(dst.Pix[i])
		dst.Pix[i] = uint8(math.Min(255, math.Round(v)))
	}
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
