package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docfind/internal/config"
	"github.com/ironsheep/docfind/internal/detection"
	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/geometry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedGenerator []geometry.Box

func (fixedGenerator) Source() geometry.Source { return geometry.SourceContour }

func (g fixedGenerator) Generate(detection.Frame) []geometry.Box { return g }

func newTestRouter(t *testing.T, mutate func(*config.HTTPConfig)) *gin.Engine {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	return newLoggedRouter(t, log, mutate)
}

func newLoggedRouter(t *testing.T, log *logrus.Logger, mutate func(*config.HTTPConfig)) *gin.Engine {
	t.Helper()

	det := ensemble.New(ensemble.DefaultOptions(),
		ensemble.WithLogger(log),
		ensemble.WithGenerators(fixedGenerator{
			{X1: 40, Y1: 30, X2: 160, Y2: 120, Confidence: 0.9, Source: geometry.SourceContour},
			{X1: 220, Y1: 30, X2: 360, Y2: 130, Confidence: 0.7, Source: geometry.SourceContour},
			{X1: 40, Y1: 170, X2: 160, Y2: 270, Confidence: 0.5, Source: geometry.SourceContour},
			{X1: 220, Y1: 170, X2: 360, Y2: 270, Confidence: 0.3, Source: geometry.SourceContour},
		}))

	cfg := config.Default().HTTP
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(det, cfg, log)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestDetect_RawBody(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/detect", bytes.NewReader(pngBytes(t, 400, 300)))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-42", resp.RequestID)
	assert.Equal(t, 400, resp.Width)
	assert.Equal(t, 300, resp.Height)
	require.Len(t, resp.Detections, 3)
	assert.Equal(t, [4]float64{0.1, 0.1, 0.4, 0.4}, resp.Detections[0].BBoxXYXY)
	assert.Equal(t, 0.9, resp.Detections[0].Confidence)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestDetect_Multipart(t *testing.T) {
	r := newTestRouter(t, nil)

	body, contentType := multipartBody(t, "image", pngBytes(t, 400, 300))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/detect?top_k=1", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Detections, 1)
	assert.NotEmpty(t, resp.RequestID)
}

func TestDetect_BadRequests(t *testing.T) {
	r := newTestRouter(t, func(c *config.HTTPConfig) { c.MaxUploadBytes = 4096 })
	big := make([]byte, 8192)

	wrongField, wrongFieldType := multipartBody(t, "file", pngBytes(t, 40, 30))

	tests := []struct {
		name        string
		target      string
		body        io.Reader
		contentType string
		wantStatus  int
	}{
		{"empty body", "/v1/documents/detect", http.NoBody, "image/png", http.StatusBadRequest},
		{"not an image", "/v1/documents/detect", bytes.NewReader([]byte("hello")), "image/png", http.StatusBadRequest},
		{"bad top_k", "/v1/documents/detect?top_k=zero", bytes.NewReader(pngBytes(t, 40, 30)), "image/png", http.StatusBadRequest},
		{"negative top_k", "/v1/documents/detect?top_k=-2", bytes.NewReader(pngBytes(t, 40, 30)), "image/png", http.StatusBadRequest},
		{"missing field", "/v1/documents/detect", wrongField, wrongFieldType, http.StatusBadRequest},
		{"too large", "/v1/documents/detect", bytes.NewReader(big), "application/octet-stream", http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, tt.body)
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestDetect_RateLimited(t *testing.T) {
	r := newTestRouter(t, func(c *config.HTTPConfig) {
		c.RateLimit = 0.001
		c.Burst = 1
	})
	data := pngBytes(t, 400, 300)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/documents/detect", bytes.NewReader(data))
		req.Header.Set("Content-Type", "image/png")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// Health checks are not limited.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDetect_ClientClosedRequest(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	router := newLoggedRouter(t, log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/detect", bytes.NewReader(pngBytes(t, 400, 300)))
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, StatusClientClosedRequest, w.Code)
	assert.Empty(t, w.Body.String())

	for _, e := range hook.AllEntries() {
		assert.GreaterOrEqual(t, e.Level, logrus.InfoLevel, "unexpected %s log: %s", e.Level, e.Message)
	}
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.DebugLevel, last.Level)
	assert.Equal(t, "client closed request", last.Message)
}
