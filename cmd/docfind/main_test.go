package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docfind/internal/ensemble"
)

func writeDocumentPhoto(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 640, 480))
	sheet := image.Rect(120, 80, 520, 400)
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			c := color.NRGBA{40, 42, 48, 255}
			if image.Pt(x, y).In(sheet) {
				c = color.NRGBA{230, 228, 220, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, "receipt.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDefaultJSONPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/photos/scan.jpg", "/photos/scan_doc.json"},
		{"scan.png", "scan_doc.json"},
		{"/a/b.c/photo", "/a/b.c/photo_doc.json"},
		{"/a/archive.tar.png", "/a/archive.tar_doc.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultJSONPath(tt.in), tt.in)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "docfind "+Version))
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Error(t, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage:")

	assert.Error(t, run([]string{"frobnicate"}, &stdout, &stderr))
	require.NoError(t, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "docfind detect")
}

func TestRunDetect(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPhoto(t, dir)
	preview := filepath.Join(dir, "preview.png")

	var stdout, stderr bytes.Buffer
	err := run([]string{"detect", "-no-ocr", "-i", input, "-o", preview}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	jsonPath := filepath.Join(dir, "receipt_doc.json")
	assert.Equal(t, jsonPath+"\n", stdout.String())

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var results []ensemble.Result
	require.NoError(t, json.Unmarshal(data, &results))
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 3)

	f, err := os.Open(preview)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}

func TestRunDetect_ExplicitOutputs(t *testing.T) {
	dir := t.TempDir()
	input := writeDocumentPhoto(t, dir)
	out := filepath.Join(dir, "out", "result.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"detect", "-no-ocr", "-k", "1", "-i", input, "-j", out}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var results []ensemble.Result
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results, 1)
}

func TestRunDetect_Errors(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0o644))
	badConfig := filepath.Join(dir, "docfind.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("detector:\n  suppress:\n    top_k: 0\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"missing input flag", []string{"detect", "-no-ocr"}},
		{"missing file", []string{"detect", "-no-ocr", "-i", filepath.Join(dir, "nope.png")}},
		{"not an image", []string{"detect", "-no-ocr", "-i", notImage}},
		{"negative k", []string{"detect", "-no-ocr", "-k", "-1", "-i", notImage}},
		{"invalid config", []string{"detect", "-no-ocr", "-config", badConfig, "-i", notImage}},
		{"unknown flag", []string{"detect", "-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
