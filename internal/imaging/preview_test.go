package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestDrawOverlays(t *testing.T) {
	img := createInMemoryImage(200, 100, color.RGBA{255, 255, 255, 255})
	overlays := []Overlay{{Rect: image.Rect(50, 40, 150, 90), Label: "document 0.87"}}

	out := DrawOverlays(img, overlays, DefaultPreviewOptions())
	if out.Rect != image.Rect(0, 0, 200, 100) {
		t.Fatalf("bounds: got %v", out.Rect)
	}

	// Outside every overlay the photo is untouched.
	if c := out.NRGBAAt(5, 95); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("background changed to %v", c)
	}

	// Inside: 20% green over white.
	inside := out.NRGBAAt(100, 70)
	if inside.G != 255 || inside.R < 200 || inside.R > 206 {
		t.Errorf("fill: got %v, want ~(204,255,204)", inside)
	}

	// Border: 80% dark green plus 20% of the fill layer.
	border := out.NRGBAAt(100, 89)
	if border.R > 5 || border.G < 150 || border.G > 170 {
		t.Errorf("border: got %v, want ~(0,163,0)", border)
	}
}

func TestDrawOverlays_DoesNotMutateInput(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{10, 20, 30, 255}).(*image.RGBA)
	DrawOverlays(img, []Overlay{{Rect: image.Rect(5, 5, 45, 45), Label: "x"}}, DefaultPreviewOptions())
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 10 || img.Pix[i+1] != 20 || img.Pix[i+2] != 30 {
			t.Fatal("DrawOverlays modified its input")
		}
	}
}

func TestDrawOverlays_SkipsEmptyAndOutside(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255})
	overlays := []Overlay{
		{Rect: image.Rect(10, 10, 10, 30)},
		{Rect: image.Rect(100, 100, 120, 120)},
	}
	out := DrawOverlays(img, overlays, DefaultPreviewOptions())
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 || out.Pix[i+1] != 0 || out.Pix[i+2] != 0 {
			t.Fatal("empty or off-image overlays must not draw")
		}
	}
}

func TestRenderPreview(t *testing.T) {
	img := createPatternImage(64, 48)
	result, err := RenderPreview(img, []Overlay{{Rect: image.Rect(8, 8, 40, 40), Label: "document 0.50"}}, DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("RenderPreview failed: %v", err)
	}
	if result.Width != 64 || result.Height != 48 || result.Overlays != 1 {
		t.Errorf("result: got %dx%d with %d overlays", result.Width, result.Height, result.Overlays)
	}
	decoded := decodeBase64PNG(t, result.ImageBase64)
	if decoded.Bounds().Dx() != 64 {
		t.Errorf("decoded width: got %d", decoded.Bounds().Dx())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF0080", color.NRGBA{0, 255, 0, 128}, false},
		{"#00008c", color.NRGBA{0, 0, 140, 255}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
