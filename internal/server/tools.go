package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var topKProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Maximum number of detections. Default is the configured top-k (3)",
	"minimum":     1,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Document detection
		{
			Name:        "document_detect",
			Description: "Find paper documents in a photo. Returns up to top_k boxes as normalized [x1, y1, x2, y2] with a confidence in [0, 1], strongest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty,
					"top_k": topKProperty,
					"pixels": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return each box in pixel coordinates. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_preview",
			Description: "Detect documents and return the photo with each detection drawn as a green box labelled with its confidence, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty,
					"top_k": topKProperty,
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Shrink the preview so its longer side is at most this many pixels. Default 1600, 0 keeps full size",
						"default":     1600,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_crop",
			Description: "Detect documents and return one of them cropped from the photo as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Detection rank to crop (0 is the strongest). Default 0",
						"default":     0,
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Extra pixels around the box on every side. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the crop. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "image_edge_detect",
			Description: "Return the edge map used by the detectors as base64-encoded PNG. Mode \"mix\" is the contour detector's blend of adaptive Canny and gradient magnitude; mode \"canny\" uses fixed thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"mix", "canny"},
						"description": "Edge map to render. Default mix",
						"default":     "mix",
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Canny low threshold (canny mode). Default 50",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "Canny high threshold (canny mode). Default 150",
						"default":     150,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the Tesseract text-line detector is available to the document detector, with its version and language.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
