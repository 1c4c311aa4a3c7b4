package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/imaging"
)

// defaultJSONPath returns <dir>/<base>_doc.json for input <dir>/<base>.<ext>.
func defaultJSONPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_doc.json")
}

func runDetect(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	input := fs.String("i", "", "input photo (required)")
	topK := fs.Int("k", 0, "maximum detections (default from config, 3)")
	jsonPath := fs.String("j", "", "output JSON path (default <input>_doc.json)")
	previewPath := fs.String("o", "", "optional preview PNG path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		fs.Usage()
		return errors.New("detect: -i is required")
	}
	if *topK < 0 {
		return fmt.Errorf("detect: -k must be positive, got %d", *topK)
	}

	rt, err := newRuntime(common, stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	img, format, err := imaging.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", *input, err)
	}

	results, err := rt.detector.DetectTopK(context.Background(), img, *topK)
	if err != nil {
		return fmt.Errorf("detect %s: %w", *input, err)
	}
	rt.log.WithFields(logrus.Fields{
		"input":      *input,
		"format":     format,
		"detections": len(results),
	}).Info("documents detected")

	out := *jsonPath
	if out == "" {
		out = defaultJSONPath(*input)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintln(stdout, out)

	if *previewPath != "" {
		style, err := rt.cfg.Preview.Options()
		if err != nil {
			return err
		}
		b := img.Bounds()
		preview := imaging.DrawOverlays(img, ensemble.Overlays(results, b.Dx(), b.Dy()), style)
		if err := writePNG(*previewPath, preview); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
