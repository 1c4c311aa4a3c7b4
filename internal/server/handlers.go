package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docfind/internal/ensemble"
	"github.com/ironsheep/docfind/internal/imaging"
	"github.com/ironsheep/docfind/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "document_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(context.Background(), params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the detector or an imaging/ocr function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Document detection
	case "document_detect":
		return s.handleDocumentDetect(ctx, args)
	case "document_preview":
		return s.handleDocumentPreview(ctx, args)
	case "document_crop":
		return s.handleDocumentCrop(ctx, args)

	// Diagnostics
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "ocr_info":
		return s.handleOCRInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Missing arguments decode as an
// empty object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Document Detection Handlers ===

// DetectResult is the document_detect payload.
type DetectResult struct {
	RequestID  string            `json:"request_id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Detections []ensemble.Result `json:"detections"`

	// Pixels holds each detection as [x1, y1, x2, y2] in image pixels when
	// requested.
	Pixels [][4]int `json:"pixels,omitempty"`
}

type documentDetectArgs struct {
	Path   string `json:"path"`
	TopK   int    `json:"top_k"`
	Pixels bool   `json:"pixels"`
}

// detect loads path from the cache and runs the detector on it.
func (s *Server) detect(ctx context.Context, path string, topK int) (image.Image, *DetectResult, error) {
	if topK < 0 {
		return nil, nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.NewString()
	results, err := s.detector.DetectTopK(ctx, img, topK)
	if err != nil {
		return nil, nil, fmt.Errorf("detect %s: %w", path, err)
	}
	s.log.WithFields(logrus.Fields{
		"request_id": id,
		"path":       path,
		"detections": len(results),
	}).Info("documents detected")

	b := img.Bounds()
	return img, &DetectResult{
		RequestID:  id,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Detections: results,
	}, nil
}

func (s *Server) handleDocumentDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	_, res, err := s.detect(ctx, a.Path, a.TopK)
	if err != nil {
		return nil, err
	}
	if a.Pixels {
		res.Pixels = make([][4]int, 0, len(res.Detections))
		for _, d := range res.Detections {
			r := d.Pixels(res.Width, res.Height)
			res.Pixels = append(res.Pixels, [4]int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y})
		}
	}
	return res, nil
}

// PreviewResult is the document_preview payload.
type PreviewResult struct {
	*imaging.PreviewResult
	RequestID  string            `json:"request_id"`
	Detections []ensemble.Result `json:"detections"`
}

type documentPreviewArgs struct {
	Path    string `json:"path"`
	TopK    int    `json:"top_k"`
	MaxSide *int   `json:"max_side"`
}

func (s *Server) handleDocumentPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentPreviewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	maxSide := 1600
	if a.MaxSide != nil {
		maxSide = *a.MaxSide
	}

	img, res, err := s.detect(ctx, a.Path, a.TopK)
	if err != nil {
		return nil, err
	}

	canvas, _ := imaging.ResizeLimit(img, maxSide)
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	preview, err := imaging.RenderPreview(canvas, ensemble.Overlays(res.Detections, w, h), s.preview)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		PreviewResult: preview,
		RequestID:     res.RequestID,
		Detections:    res.Detections,
	}, nil
}

type documentCropArgs struct {
	Path    string  `json:"path"`
	Index   int     `json:"index"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

// CropResult is the document_crop payload.
type CropResult struct {
	*imaging.CropResult
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleDocumentCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentCropArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Index < 0 {
		return nil, fmt.Errorf("index must be non-negative, got %d", a.Index)
	}

	img, res, err := s.detect(ctx, a.Path, max(a.Index+1, s.detector.Options().Suppress.TopK))
	if err != nil {
		return nil, err
	}
	if a.Index >= len(res.Detections) {
		return nil, fmt.Errorf("no document at index %d (%d detected)", a.Index, len(res.Detections))
	}

	d := res.Detections[a.Index]
	r := d.Pixels(res.Width, res.Height).Add(img.Bounds().Min)
	crop, err := imaging.CropPadded(img, r, a.Padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return &CropResult{CropResult: crop, Confidence: d.Confidence}, nil
}

// === Diagnostic Handlers ===

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	Mode          string `json:"mode"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = "mix"
	}
	if a.Mode != "mix" && a.Mode != "canny" {
		return nil, fmt.Errorf("unknown edge mode %q (want mix or canny)", a.Mode)
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh, a.Mode == "mix")
}

func (s *Server) handleOCRInfo() (interface{}, error) {
	if s.ocr == nil {
		return ocr.Info{
			Available: false,
			Language:  ocr.DefaultLanguage,
			Backend:   "disabled",
			Error:     "ocr is disabled in the configuration",
		}, nil
	}
	return s.ocr.Info(), nil
}
