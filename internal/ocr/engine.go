package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docfind/internal/geometry"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// ErrUnavailable is returned when no Tesseract backend can be initialized.
var ErrUnavailable = errors.New("ocr: tesseract unavailable")

// Options configures an Engine.
type Options struct {
	// Language is a Tesseract language code such as "eng" or "deu".
	Language string `yaml:"language" json:"language"`

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string `yaml:"tessdata_prefix" json:"tessdata_prefix,omitempty"`
}

// Info describes the OCR subsystem.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Language     string `json:"language"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// Engine is a lazily initialized, mutex-guarded Tesseract client.
type Engine struct {
	opts Options
	log  logrus.FieldLogger

	mu          sync.Mutex
	initialized bool
	initErr     error
	backend     backend
}

// NewEngine returns an Engine. Tesseract is not touched until the first
// call to Available, Info or DetectTextLines.
func NewEngine(opts Options, log logrus.FieldLogger) *Engine {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{opts: opts, log: log}
}

// Available reports whether Tesseract could be initialized.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensure() == nil
}

// Info returns availability and version details.
func (e *Engine) Info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := Info{
		Language:     e.opts.Language,
		Backend:      backendName,
		TessdataPath: e.opts.TessdataPrefix,
	}
	if err := e.ensure(); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	info.Version = e.backend.version()
	return info
}

// DetectTextLines returns one rectangle polygon per text line found in img,
// in img's pixel coordinates relative to its bounds.
//
// Tesseract calls cannot be interrupted; when ctx ends first the call
// returns ctx.Err() and the engine finishes the page in the background.
func (e *Engine) DetectTextLines(ctx context.Context, img image.Image) ([][]geometry.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	type result struct {
		rects []image.Rectangle
		err   error
	}
	done := make(chan result, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.ensure(); err != nil {
			done <- result{err: err}
			return
		}
		rects, err := e.backend.textLines(buf.Bytes())
		done <- result{rects: rects, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		e.log.WithField("lines", len(r.rects)).Debug("ocr text lines")
		return rectPolygons(r.rects), nil
	}
}

// Close releases the Tesseract client. The Engine may be used again
// afterwards; it will initialize a fresh client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	e.initialized = false
	e.initErr = nil
	return e.backend.close()
}

// ensure initializes the backend once. Callers must hold e.mu.
func (e *Engine) ensure() error {
	if e.initialized {
		return e.initErr
	}
	e.initialized = true
	if err := e.backend.init(e.opts); err != nil {
		e.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		e.log.WithError(err).WithField("language", e.opts.Language).Info("ocr disabled")
		return e.initErr
	}
	e.log.WithFields(logrus.Fields{
		"language": e.opts.Language,
		"version":  e.backend.version(),
	}).Debug("ocr engine ready")
	return nil
}

// rectPolygons converts line rectangles to clockwise corner polygons.
func rectPolygons(rects []image.Rectangle) [][]geometry.Point {
	out := make([][]geometry.Point, 0, len(rects))
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		x1, y1 := float64(r.Min.X), float64(r.Min.Y)
		x2, y2 := float64(r.Max.X), float64(r.Max.Y)
		out = append(out, []geometry.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}})
	}
	return out
}
