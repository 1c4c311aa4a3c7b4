//go:build cgo

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

const backendName = "gosseract"

type backend struct {
	client *gosseract.Client
}

func (b *backend) init(opts Options) error {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return fmt.Errorf("failed to set language: %w", err)
	}

	// gosseract initializes lazily; a blank page forces it so missing
	// language data surfaces here rather than mid-detection.
	probe, err := blankPNG()
	if err != nil {
		client.Close()
		return err
	}
	if err := client.SetImageFromBytes(probe); err != nil {
		client.Close()
		return fmt.Errorf("failed to set image: %w", err)
	}
	if _, err := client.Text(); err != nil {
		client.Close()
		return fmt.Errorf("tesseract init failed: %w", err)
	}

	b.client = client
	return nil
}

func (b *backend) textLines(data []byte) ([]image.Rectangle, error) {
	if err := b.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := b.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get text lines: %w", err)
	}

	rects := make([]image.Rectangle, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		rects = append(rects, box.Box)
	}
	return rects, nil
}

func (b *backend) version() string {
	if b.client == nil {
		return gosseract.Version()
	}
	return b.client.Version()
}

func (b *backend) close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

func blankPNG() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = color.White.Y
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode probe image: %w", err)
	}
	return buf.Bytes(), nil
}
