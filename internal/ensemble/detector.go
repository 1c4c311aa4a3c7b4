package ensemble

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/docfind/internal/detection"
	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
)

// Options configures a Detector.
type Options struct {
	// Scales lists the maximum-side targets. Larger photos are shrunk to
	// each target; smaller ones run at native size.
	Scales []int

	// MinSide drops pooled boxes narrower or shorter than this many pixels.
	MinSide int

	Suppress SuppressOptions

	// Final is applied to the pooled candidates before suppression.
	Final geometry.FrameFilter

	// Workers bounds concurrent generator runs. Zero means GOMAXPROCS.
	Workers int

	// Timeout bounds one detection. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration

	Normalize imaging.NormalizeOptions
}

// DefaultOptions returns the standard three-scale configuration.
func DefaultOptions() Options {
	return Options{
		Scales:    []int{960, 1280, 1600},
		MinSide:   32,
		Suppress:  DefaultSuppressOptions(),
		Final:     geometry.DefaultFrameFilter,
		Timeout:   60 * time.Second,
		Normalize: imaging.DefaultNormalizeOptions(),
	}
}

// Option customizes a Detector.
type Option func(*Detector)

// WithTextLines enables the OCR generator with the given capability.
func WithTextLines(d detection.TextLineDetector) Option {
	return func(det *Detector) {
		if d != nil {
			det.ocr = detection.OCRGenerator{Detector: d}
		}
	}
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(det *Detector) {
		if log != nil {
			det.log = log
		}
	}
}

// WithGenerators replaces the scale-aware generators. Their order is the
// pool order within a scale.
func WithGenerators(gens ...detection.Generator) Option {
	return func(det *Detector) {
		det.generators = gens
	}
}

// Detector finds document-like regions in photos. It holds no per-call
// state and is safe for concurrent use.
type Detector struct {
	opts       Options
	generators []detection.Generator
	ocr        detection.OCRGenerator
	log        logrus.FieldLogger
}

// New returns a Detector using the default generators and no OCR.
func New(opts Options, optFns ...Option) *Detector {
	d := &Detector{
		opts:       opts,
		generators: detection.Defaults(),
		ocr:        detection.OCRGenerator{Detector: detection.NoTextLines{}},
		log:        logrus.StandardLogger(),
	}
	for _, fn := range optFns {
		fn(d)
	}
	return d
}

// Options returns the detector configuration.
func (d *Detector) Options() Options { return d.opts }

// Detect returns the ranked, normalized detections for img.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]Result, error) {
	boxes, err := d.DetectBoxes(ctx, img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return Emit(boxes, b.Dx(), b.Dy()), nil
}

// DetectBoxes is Detect in full-resolution pixels, before normalization
// and confidence clamping.
func (d *Detector) DetectBoxes(ctx context.Context, img image.Image) ([]geometry.Box, error) {
	pool, err := d.Candidates(ctx, img)
	if err != nil {
		return nil, err
	}
	kept := Suppress(pool, d.opts.Suppress)
	d.log.WithFields(logrus.Fields{
		"candidates": len(pool),
		"kept":       len(kept),
	}).Debug("suppression done")
	return kept, nil
}

// DetectTopK is Detect with the output capped at topK instead of the
// configured Suppress.TopK. topK <= 0 keeps the configured cap.
func (d *Detector) DetectTopK(ctx context.Context, img image.Image, topK int) ([]Result, error) {
	if topK <= 0 {
		return d.Detect(ctx, img)
	}
	pool, err := d.Candidates(ctx, img)
	if err != nil {
		return nil, err
	}
	opts := d.opts.Suppress
	opts.TopK = topK
	b := img.Bounds()
	return Emit(Suppress(pool, opts), b.Dx(), b.Dy()), nil
}

// Candidates returns the pooled candidates that survive the final
// full-frame and minimum-size filters, in pool order.
func (d *Detector) Candidates(ctx context.Context, img image.Image) ([]geometry.Box, error) {
	if isNilImage(img) {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero area (%dx%d)", ErrInvalidImage, bounds.Dx(), bounds.Dy())
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	log := d.log.WithFields(logrus.Fields{
		"run":    uuid.NewString(),
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})
	start := time.Now()

	normalized := imaging.Normalize(img, d.opts.Normalize)
	frames := d.frames(normalized)

	ocrDone := make(chan []geometry.Box, 1)
	go func() { ocrDone <- d.runOCR(ctx, normalized, log) }()

	scaled, err := d.runGenerators(ctx, frames)
	if err != nil {
		return nil, err
	}

	var ocrBoxes []geometry.Box
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ocrBoxes = <-ocrDone:
	}

	W, H := bounds.Dx(), bounds.Dy()
	pool := make([]geometry.Box, 0, len(scaled)+len(ocrBoxes))
	for _, b := range append(scaled, ocrBoxes...) {
		if d.opts.Final.Reject(b, W, H) {
			continue
		}
		if b.Width() < d.opts.MinSide || b.Height() < d.opts.MinSide {
			continue
		}
		pool = append(pool, b)
	}

	log.WithFields(logrus.Fields{
		"scales":  len(frames),
		"raw":     len(scaled) + len(ocrBoxes),
		"pooled":  len(pool),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("candidate pool built")
	return pool, nil
}

// isNilImage reports whether img is nil or a nil pointer of one of the
// standard image types.
func isNilImage(img image.Image) bool {
	switch m := img.(type) {
	case nil:
		return true
	case *image.NRGBA:
		return m == nil
	case *image.RGBA:
		return m == nil
	case *image.NRGBA64:
		return m == nil
	case *image.RGBA64:
		return m == nil
	case *image.Gray:
		return m == nil
	case *image.Gray16:
		return m == nil
	case *image.YCbCr:
		return m == nil
	case *image.NYCbCrA:
		return m == nil
	case *image.CMYK:
		return m == nil
	case *image.Paletted:
		return m == nil
	case *image.Alpha:
		return m == nil
	}
	return false
}

// frames downscales img to each configured target. Targets that produce
// the same size as an earlier one are skipped.
func (d *Detector) frames(img *image.NRGBA) []detection.Frame {
	W, H := img.Rect.Dx(), img.Rect.Dy()
	seen := make(map[image.Point]bool)
	var frames []detection.Frame
	for _, target := range d.opts.Scales {
		small, s := imaging.ResizeLimit(img, target)
		size := small.Rect.Size()
		if seen[size] {
			continue
		}
		seen[size] = true
		frames = append(frames, detection.Frame{
			Image:      small,
			FullWidth:  W,
			FullHeight: H,
			InvScale:   1 / s,
		})
	}
	return frames
}

// runGenerators runs every generator on every frame on a bounded errgroup
// and concatenates the results scale-major, generator-major. It returns as
// soon as ctx is done; queued runs are not started and runs already in
// flight finish in the background.
func (d *Detector) runGenerators(ctx context.Context, frames []detection.Frame) ([]geometry.Box, error) {
	nGen := len(d.generators)
	slots := make([][]geometry.Box, len(frames)*nGen)
	if len(slots) == 0 {
		return nil, nil
	}

	workers := d.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	done := make(chan error, 1)
	go func() {
		for i := range slots {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i] = d.generators[i%nGen].Generate(frames[i/nGen])
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	var pool []geometry.Box
	for i, boxes := range slots {
		d.log.WithFields(logrus.Fields{
			"scale":     i / nGen,
			"generator": d.generators[i%nGen].Source(),
			"boxes":     len(boxes),
		}).Trace("generator done")
		pool = append(pool, boxes...)
	}
	return pool, nil
}

// runOCR returns the OCR candidates, or none when OCR is unavailable or
// fails for this photo.
func (d *Detector) runOCR(ctx context.Context, img *image.NRGBA, log logrus.FieldLogger) []geometry.Box {
	if !d.ocr.Available() {
		log.Debug("ocr unavailable, skipping")
		return nil
	}
	boxes, err := d.ocr.Generate(ctx, img)
	if err != nil {
		log.WithError(err).Warn("ocr failed, skipping")
		return nil
	}
	return boxes
}
