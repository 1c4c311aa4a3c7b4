// Package httpapi serves the document detector over HTTP.
//
//	POST /v1/documents/detect   image as multipart field "image" or raw body
//	GET  /healthz
//
// A detection responds with {request_id, width, height, detections}, where
// detections is the ranked list of normalized boxes.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ironsheep/docfind/internal/config"
	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/imaging"
)

// StatusClientClosedRequest is reported, without a body, when the client
// goes away before detection finishes.
const StatusClientClosedRequest = 499

// DetectResponse is the body of a successful detection.
type DetectResponse struct {
	RequestID  string            `json:"request_id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Detections []ensemble.Result `json:"detections"`
}

type handler struct {
	detector  *ensemble.Detector
	log       logrus.FieldLogger
	maxUpload int64
}

// NewRouter returns the gin engine serving the detection API.
func NewRouter(detector *ensemble.Detector, cfg config.HTTPConfig, log logrus.FieldLogger) *gin.Engine {
	h := &handler{detector: detector, log: log, maxUpload: cfg.MaxUploadBytes}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, cfg.Burst))
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(log))
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/documents/detect", rateLimit(limiter), h.detect)
	}
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) detect(c *gin.Context) {
	topK := 0
	if v := c.Query("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			c.JSON(http.StatusBadRequest, errorBody(c, "top_k must be a positive integer"))
			return
		}
		topK = k
	}

	data, err := h.readImage(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorBody(c, fmt.Sprintf("image exceeds %d bytes", h.maxUpload)))
			return
		}
		c.JSON(http.StatusBadRequest, errorBody(c, err.Error()))
		return
	}

	img, format, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, err.Error()))
		return
	}

	results, err := h.detector.DetectTopK(c.Request.Context(), img, topK)
	switch {
	case errors.Is(err, ensemble.ErrInvalidImage):
		c.JSON(http.StatusUnprocessableEntity, errorBody(c, err.Error()))
		return
	case errors.Is(err, context.Canceled):
		c.Status(StatusClientClosedRequest)
		return
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, errorBody(c, "detection timed out"))
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody(c, "detection failed"))
		return
	}

	b := img.Bounds()
	h.log.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"format":     format,
		"width":      b.Dx(),
		"height":     b.Dy(),
		"detections": len(results),
	}).Debug("documents detected")

	c.JSON(http.StatusOK, DetectResponse{
		RequestID:  c.GetString(requestIDKey),
		Width:      b.Dx(),
		Height:     b.Dy(),
		Detections: results,
	})
}

// readImage returns the uploaded bytes from the multipart field "image" or,
// for any other content type, the raw body.
func (h *handler) readImage(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("multipart field \"image\": %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty request body")
	}
	return data, nil
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
