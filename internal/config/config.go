// Package config loads docfind settings from defaults, an optional YAML or
// JSON file, and DOCFIND_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/geometry"
	"github.com/ironsheep/docfind/internal/imaging"
	"github.com/ironsheep/docfind/internal/ocr"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "DOCFIND_LOG_LEVEL"
	EnvTopK     = "DOCFIND_TOP_K"
	EnvOCR      = "DOCFIND_OCR"
	EnvOCRLang  = "DOCFIND_OCR_LANG"
	EnvHTTPAddr = "DOCFIND_HTTP_ADDR"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete docfind configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" json:"log"`
	Detector DetectorConfig `yaml:"detector" json:"detector"`
	OCR      OCRConfig      `yaml:"ocr" json:"ocr"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	Preview  PreviewConfig  `yaml:"preview" json:"preview"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// DetectorConfig mirrors ensemble.Options.
type DetectorConfig struct {
	Scales    []int                    `yaml:"scales" json:"scales"`
	MinSide   int                      `yaml:"min_side" json:"min_side"`
	Workers   int                      `yaml:"workers" json:"workers"`
	Timeout   time.Duration            `yaml:"timeout" json:"timeout"`
	Suppress  ensemble.SuppressOptions `yaml:"suppress" json:"suppress"`
	Frame     geometry.FrameFilter     `yaml:"frame" json:"frame"`
	Normalize imaging.NormalizeOptions `yaml:"normalize" json:"normalize"`
}

// OCRConfig enables the OCR-envelope generator.
type OCRConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	ocr.Options `yaml:",inline"`
}

// HTTPConfig configures the HTTP detection endpoint.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`

	// RateLimit is the sustained number of detections per second across
	// all clients. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst"`

	// MaxUploadBytes bounds the request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

// PreviewConfig sets the overlay colors as "#RRGGBB" or "#RRGGBBAA".
type PreviewConfig struct {
	Fill    string  `yaml:"fill" json:"fill"`
	Border  string  `yaml:"border" json:"border"`
	Text    string  `yaml:"text" json:"text"`
	Opacity float64 `yaml:"opacity" json:"opacity"`
}

// Options parses the colors into imaging.PreviewOptions.
func (p PreviewConfig) Options() (imaging.PreviewOptions, error) {
	opts := imaging.PreviewOptions{Opacity: p.Opacity}
	for _, c := range []struct {
		name string
		hex  string
		dst  *color.NRGBA
	}{
		{"fill", p.Fill, &opts.Fill},
		{"border", p.Border, &opts.Border},
		{"text", p.Text, &opts.Text},
	} {
		v, err := imaging.ParseHexColor(c.hex)
		if err != nil {
			return imaging.PreviewOptions{}, fmt.Errorf("preview.%s: %w", c.name, err)
		}
		*c.dst = v
	}
	return opts, nil
}

// Default returns the built-in configuration.
func Default() Config {
	opts := ensemble.DefaultOptions()
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Detector: DetectorConfig{
			Scales:    opts.Scales,
			MinSide:   opts.MinSide,
			Workers:   opts.Workers,
			Timeout:   opts.Timeout,
			Suppress:  opts.Suppress,
			Frame:     opts.Final,
			Normalize: opts.Normalize,
		},
		OCR: OCRConfig{
			Enabled: true,
			Options: ocr.Options{Language: ocr.DefaultLanguage},
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			RateLimit:      4,
			Burst:          8,
			MaxUploadBytes: 32 << 20,
		},
		Preview: PreviewConfig{
			Fill:    "#00FF00",
			Border:  "#008C00",
			Text:    "#000000",
			Opacity: 0.2,
		},
	}
}

// Load returns the defaults overlaid with the file at path (if non-empty)
// and then the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML or JSON file at path onto c. Keys missing from
// the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
	return nil
}

// ApplyEnv overlays the DOCFIND_* variables using getenv, which is
// os.Getenv outside tests. Empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvTopK); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTopK, err)
		}
		c.Detector.Suppress.TopK = k
	}
	if v := getenv(EnvOCR); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOCR, err)
		}
		c.OCR.Enabled = on
	}
	if v := getenv(EnvOCRLang); v != "" {
		c.OCR.Language = v
	}
	if v := getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	s := c.Detector.Suppress
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"suppress.containment", s.Containment},
		{"suppress.dedup_iou", s.DedupIoU},
		{"suppress.nms_iou", s.NMSIoU},
		{"frame.area_cap", c.Detector.Frame.AreaCap},
	} {
		if f.v <= 0 || f.v > 1 {
			return fmt.Errorf("%w: detector.%s must be in (0, 1], got %g", ErrInvalid, f.name, f.v)
		}
	}
	if c.Detector.Frame.MarginCap < 0 || c.Detector.Frame.MarginCap >= 0.5 {
		return fmt.Errorf("%w: detector.frame.margin_cap must be in [0, 0.5), got %g", ErrInvalid, c.Detector.Frame.MarginCap)
	}
	if s.TopK < 1 {
		return fmt.Errorf("%w: detector.suppress.top_k must be at least 1, got %d", ErrInvalid, s.TopK)
	}
	if len(c.Detector.Scales) == 0 {
		return fmt.Errorf("%w: detector.scales is empty", ErrInvalid)
	}
	for _, sc := range c.Detector.Scales {
		if sc <= 0 {
			return fmt.Errorf("%w: detector.scales must be positive, got %d", ErrInvalid, sc)
		}
	}
	if c.Detector.MinSide < 0 || c.Detector.Workers < 0 || c.Detector.Timeout < 0 {
		return fmt.Errorf("%w: detector.min_side, workers and timeout must not be negative", ErrInvalid)
	}
	if c.Detector.Normalize.Tiles < 1 || c.Detector.Normalize.ClipLimit <= 0 {
		return fmt.Errorf("%w: detector.normalize needs tiles >= 1 and clip_limit > 0", ErrInvalid)
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: http.rate_limit must not be negative and http.max_upload_bytes must be positive", ErrInvalid)
	}
	if c.Preview.Opacity < 0 || c.Preview.Opacity > 1 {
		return fmt.Errorf("%w: preview.opacity must be in [0, 1], got %g", ErrInvalid, c.Preview.Opacity)
	}
	if _, err := c.Preview.Options(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// DetectorOptions converts the detector section into ensemble.Options.
func (c Config) DetectorOptions() ensemble.Options {
	d := c.Detector
	return ensemble.Options{
		Scales:    append([]int(nil), d.Scales...),
		MinSide:   d.MinSide,
		Suppress:  d.Suppress,
		Final:     d.Frame,
		Workers:   d.Workers,
		Timeout:   d.Timeout,
		Normalize: d.Normalize,
	}
}
