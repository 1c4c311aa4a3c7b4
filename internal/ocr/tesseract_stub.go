//go:build !cgo

package ocr

import (
	"errors"
	"image"
)

const backendName = "none (built without cgo)"

type backend struct{}

func (*backend) init(Options) error {
	return errors.New("tesseract requires cgo")
}

func (*backend) textLines([]byte) ([]image.Rectangle, error) {
	return nil, ErrUnavailable
}

func (*backend) version() string { return "" }

func (*backend) close() error { return nil }
