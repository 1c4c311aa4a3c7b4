package imaging

import (
	"image/color"
	"math"
	"testing"
)

func TestEdgeDetect(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	result, err := EdgeDetect(img, 50, 150, false)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.Mode != "canny" {
		t.Errorf("Mode: got %s, want canny", result.Mode)
	}

	edgeImg := decodeBase64PNG(t, result.ImageBase64)
	if edgeImg.Bounds().Dx() != 100 || edgeImg.Bounds().Dy() != 100 {
		t.Errorf("decoded image dimensions: got %dx%d, want 100x100",
			edgeImg.Bounds().Dx(), edgeImg.Bounds().Dy())
	}

	// The left side of the black rectangle sits at x=25.
	edgeFound := false
	for x := 22; x <= 27; x++ {
		r, _, _, _ := edgeImg.At(x, 50).RGBA()
		if r > 0 {
			edgeFound = true
			break
		}
	}
	if !edgeFound {
		t.Error("rectangle edge was not detected")
	}
}

func TestEdgeDetect_MixMode(t *testing.T) {
	img := createEdgeTestImage(60, 60)

	result, err := EdgeDetect(img, 0, 0, true)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}
	if result.Mode != "mix" {
		t.Errorf("Mode: got %s, want mix", result.Mode)
	}
	decodeBase64PNG(t, result.ImageBase64)
}

func TestEdgeDetect_UniformImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255})

	for _, mix := range []bool{false, true} {
		result, err := EdgeDetect(img, 50, 150, mix)
		if err != nil {
			t.Fatalf("EdgeDetect failed: %v", err)
		}

		edgeImg := decodeBase64PNG(t, result.ImageBase64)
		for y := 0; y < 50; y++ {
			for x := 0; x < 50; x++ {
				if r, _, _, _ := edgeImg.At(x, y).RGBA(); r != 0 {
					t.Fatalf("mix=%v: uniform image should have no edges, got %d at (%d,%d)", mix, r>>8, x, y)
				}
			}
		}
	}
}

func TestEdgeDetect_SmallImage(t *testing.T) {
	// Very small image (edge cases for convolution)
	img := createInMemoryImage(5, 5, color.RGBA{128, 128, 128, 255})

	result, err := EdgeDetect(img, 50, 150, true)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}
	if result.Width != 5 || result.Height != 5 {
		t.Errorf("dimensions: got %dx%d, want 5x5", result.Width, result.Height)
	}
}

func TestCanny_ThinRidge(t *testing.T) {
	g := GaussianBlur5(grayPlane(100, 40, func(x, _ int) uint8 {
		if x < 50 {
			return 0
		}
		return 255
	}))

	edges := Canny(g, 50, 150)
	for y := 5; y < 35; y++ {
		n := 0
		for x := 0; x < 100; x++ {
			if edges.Pix[y*edges.Stride+x] != 0 {
				n++
				if x < 47 || x > 52 {
					t.Errorf("row %d: edge at x=%d is far from the step", y, x)
				}
			}
		}
		if n < 1 || n > 2 {
			t.Errorf("row %d: got %d edge pixels, want a 1-2 pixel ridge", y, n)
		}
	}
}

func TestCanny_Hysteresis(t *testing.T) {
	// A strong step at x=20 (L1 800) and a weak one at x=60 (L1 60) with
	// nothing in between.
	g := grayPlane(80, 40, func(x, y int) uint8 {
		switch {
		case x < 20:
			return 0
		case x < 60:
			return 200
		default:
			return 215
		}
	})

	strongOnly := Canny(g, 100, 300)
	for y := 2; y < 38; y++ {
		for x := 55; x < 65; x++ {
			if strongOnly.Pix[y*strongOnly.Stride+x] != 0 {
				t.Fatalf("weak edge at (%d,%d) should not survive without a seed", x, y)
			}
		}
	}

	both := Canny(g, 10, 300)
	found := false
	for x := 55; x < 65; x++ {
		if both.Pix[20*both.Stride+x] != 0 {
			found = true
		}
	}
	if found {
		t.Error("disconnected weak edge should be dropped by hysteresis")
	}

	seeded := Canny(g, 10, 50)
	found = false
	for x := 55; x < 65; x++ {
		if seeded.Pix[20*seeded.Stride+x] != 0 {
			found = true
		}
	}
	if !found {
		t.Error("edge above the high threshold should be kept")
	}
}

func TestAutoCannyThresholds(t *testing.T) {
	tests := []struct {
		median    float64
		low, high float64
	}{
		{0, minAutoLow, minAutoHigh},
		{10, minAutoLow, minAutoHigh},
		{100, 33, 133},
		{250, 82, 255},
	}

	for _, tt := range tests {
		low, high := AutoCannyThresholds(tt.median)
		if low != tt.low || high != tt.high {
			t.Errorf("AutoCannyThresholds(%v): got (%v,%v), want (%v,%v)", tt.median, low, high, tt.low, tt.high)
		}
	}
}

func TestEdgeMix_IgnoresQuantizationRipple(t *testing.T) {
	// Strong step at x=30 and a one-level ripple at x=70.
	g := GaussianBlur5(grayPlane(100, 60, func(x, _ int) uint8 {
		switch {
		case x < 30:
			return 40
		case x < 70:
			return 200
		default:
			return 201
		}
	}))

	mix, canny := EdgeMix(g)
	row := 30 * mix.Stride

	strong := uint8(0)
	for x := 27; x <= 33; x++ {
		if mix.Pix[row+x] > strong {
			strong = mix.Pix[row+x]
		}
	}
	if strong < 178 {
		t.Errorf("strong step: got peak mix %d, want >= 178", strong)
	}

	for x := 65; x <= 75; x++ {
		if canny.Pix[row+x] != 0 {
			t.Errorf("ripple at x=%d produced a Canny edge", x)
		}
		if mix.Pix[row+x] >= 16 {
			t.Errorf("ripple at x=%d: mix %d, want < 16", x, mix.Pix[row+x])
		}
	}
}

func TestSobelMagnitude_Normalized(t *testing.T) {
	g := grayPlane(20, 20, func(x, _ int) uint8 { return uint8(x * 10) })
	mag := Sobel(g).Magnitude()

	peak := uint8(0)
	for _, v := range mag.Pix {
		if v > peak {
			peak = v
		}
	}
	if peak != 254 && peak != 255 {
		t.Errorf("peak magnitude: got %d, want ~255", peak)
	}
}

func TestGaussianBlur5(t *testing.T) {
	uniform := grayPlane(10, 10, func(_, _ int) uint8 { return 128 })
	blurred := GaussianBlur5(uniform)
	for i, v := range blurred.Pix {
		if v != 128 {
			t.Fatalf("uniform blur changed pixel %d to %d", i, v)
		}
	}

	spot := grayPlane(11, 11, func(x, y int) uint8 {
		if x == 5 && y == 5 {
			return 255
		}
		return 0
	})
	blurred = GaussianBlur5(spot)
	if blurred.Pix[5*blurred.Stride+5] >= 255 {
		t.Error("bright spot should be reduced after blur")
	}
	if want := uint8(math.Round(255 * 41.0 / 273)); blurred.Pix[5*blurred.Stride+5] != want {
		t.Errorf("center: got %d, want %d", blurred.Pix[5*blurred.Stride+5], want)
	}
	if blurred.Pix[5*blurred.Stride+4] == 0 || blurred.Pix[4*blurred.Stride+5] == 0 {
		t.Error("neighbors should receive some brightness from blur")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
