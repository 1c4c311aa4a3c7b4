package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docfind/internal/config"
	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/httpapi"
	"github.com/ironsheep/docfind/internal/ocr"
	"github.com/ironsheep/docfind/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `docfind - find paper documents in photos

Usage:
  docfind detect -i PHOTO [-k 3] [-j OUT.json] [-o PREVIEW.png] [-config FILE] [-no-ocr]
  docfind mcp    [-config FILE] [-no-ocr]   MCP server on stdin/stdout
  docfind http   [-config FILE] [-no-ocr] [-addr :8080]
  docfind version

Environment variables:
  DOCFIND_LOG_LEVEL=debug      Log level (logs go to stderr)
  DOCFIND_TOP_K=3              Maximum detections per photo
  DOCFIND_OCR=false            Disable the Tesseract text-line detector
  DOCFIND_OCR_LANG=eng         Tesseract language
  DOCFIND_HTTP_ADDR=:8080      Listen address for "docfind http"
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "docfind: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	switch args[0] {
	case "detect":
		return runDetect(args[1:], stdout, stderr)
	case "mcp":
		return runMCP(args[1:], stderr)
	case "http":
		return runHTTP(args[1:], stderr)
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "docfind %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return nil
	case "--help", "-h", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags are shared by every subcommand that builds a detector.
type commonFlags struct {
	configPath string
	noOCR      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML or JSON config file")
	fs.BoolVar(&c.noOCR, "no-ocr", false, "disable the Tesseract text-line detector")
}

// runtime holds what a subcommand needs to detect documents.
type runtime struct {
	cfg      config.Config
	log      *logrus.Logger
	detector *ensemble.Detector
	ocr      *ocr.Engine
}

func newRuntime(flags commonFlags, stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.noOCR {
		cfg.OCR.Enabled = false
	}

	log, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: log}
	opts := []ensemble.Option{ensemble.WithLogger(log)}
	if cfg.OCR.Enabled {
		rt.ocr = ocr.NewEngine(cfg.OCR.Options, log)
		opts = append(opts, ensemble.WithTextLines(rt.ocr))
	}
	rt.detector = ensemble.New(cfg.DetectorOptions(), opts...)

	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"ocr":     cfg.OCR.Enabled,
		"top_k":   cfg.Detector.Suppress.TopK,
	}).Debug("docfind starting")
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.ocr == nil {
		return
	}
	if err := rt.ocr.Close(); err != nil {
		rt.log.WithError(err).Warn("failed to close ocr engine")
	}
}

func runMCP(args []string, stderr io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime(common, stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	style, err := rt.cfg.Preview.Options()
	if err != nil {
		return err
	}
	srv := server.New(rt.detector,
		server.WithOCR(rt.ocr),
		server.WithPreview(style),
		server.WithLogger(rt.log),
		server.WithVersion(Version))
	if err := srv.Run(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func runHTTP(args []string, stderr io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("http", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)
	addr := fs.String("addr", "", "listen address (default from config, :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := newRuntime(common, stderr)
	if err != nil {
		return err
	}
	defer rt.Close()
	if *addr != "" {
		rt.cfg.HTTP.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := httpapi.NewRouter(rt.detector, rt.cfg.HTTP, rt.log)
	return httpapi.ListenAndServe(ctx, rt.cfg.HTTP.Addr, router, rt.log)
}
