package server

import (
	"strings"

	"github.com/ironsheep/image-fit/internal/imaging"
	"github.com/ironsheep/image-fit/internal/resample"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file, or a data: URL",
}

// fitProperties are shared by image_resize and image_geometry.
func fitProperties() map[string]interface{} {
	return map[string]interface{}{
		"policy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"cover", "contain", "fill", "shrink", "grow"},
			"description": "How the source maps into the box. cover crops, contain letterboxes, fill stretches, shrink only scales down, grow only scales up. Default contain",
			"default":     "contain",
		},
		"width": map[string]interface{}{
			"type":        "integer",
			"description": "Box width in pixels. Omit to follow the aspect ratio from height",
		},
		"height": map[string]interface{}{
			"type":        "integer",
			"description": "Box height in pixels. Omit to follow the aspect ratio from width",
		},
		"scale_x": map[string]interface{}{
			"type":        "number",
			"description": "Horizontal scale factor, used when width and height are both omitted",
		},
		"scale_y": map[string]interface{}{
			"type":        "number",
			"description": "Vertical scale factor. Defaults to scale_x",
		},
		"padding": map[string]interface{}{
			"description": "Pixels kept free around the content: one integer for every side, or an object with top, right, bottom, left",
			"oneOf": []interface{}{
				map[string]interface{}{"type": "integer", "minimum": 0},
				map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"top":    map[string]interface{}{"type": "integer", "minimum": 0},
						"right":  map[string]interface{}{"type": "integer", "minimum": 0},
						"bottom": map[string]interface{}{"type": "integer", "minimum": 0},
						"left":   map[string]interface{}{"type": "integer", "minimum": 0},
					},
				},
			},
		},
		"background": map[string]interface{}{
			"type":        "string",
			"description": "Canvas colour as #rgb, #rrggbb, #rrggbbaa or a name. Omit for transparent",
		},
		"region": map[string]interface{}{
			"type":        "string",
			"description": "Part of the source to fit: x1,y1,x2,y2 or one of " + strings.Join(imaging.RegionNames, ", ") + ". Default the whole image",
		},
		"trim": map[string]interface{}{
			"type":        "boolean",
			"description": "For contain, shrink the canvas to the scaled content instead of keeping the full box",
			"default":     false,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	resizeProps := fitProperties()
	resizeProps["path"] = pathProperty
	resizeProps["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"},
		"description": "Output format. png, bmp and tiff are lossless. webp is recognised but cannot be encoded",
	}
	resizeProps["quality"] = map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
		"description": "Lossy quality in [0,1]. Only jpeg uses it. Default 0.92",
	}
	resizeProps["stages"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Draw stages run after scaling, e.g. grayscale, brightness=0.2, contrast=0.1, sharpen=1, blur=2, invert, border=4:#000, edges=50:150, grid=50:#ff000080:labels",
	}
	resizeProps["resampler"] = map[string]interface{}{
		"type":        "string",
		"enum":        resample.Names(),
		"description": "Scaling backend. Default " + resample.DefaultName,
	}
	resizeProps["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Write the encoded image here. When omitted the result carries a data URL",
	}

	geometryProps := fitProperties()
	geometryProps["path"] = pathProperty
	geometryProps["source_width"] = map[string]interface{}{
		"type":        "integer",
		"description": "Source width, used when path is omitted",
	}
	geometryProps["source_height"] = map[string]interface{}{
		"type":        "integer",
		"description": "Source height, used when path is omitted",
	}

	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image and return its dimensions, format and size. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Resize Operations
		{
			Name:        "image_resize",
			Description: "Fit an image into a box with a fit policy, padding and background, then encode it. Returns the output size, the geometry plan and either a data URL or the written path.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": resizeProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_geometry",
			Description: "Compute the source crop, destination rectangle and canvas size for a resize without drawing anything.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": geometryProps,
			},
		},

		// Pool Operations
		{
			Name:        "image_pool_stats",
			Description: "Report surface pool counters: surfaces created, acquired, released and evicted, hit ratio, memory in use and complexity.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "image_pool_clear",
			Description: "Evict idle surfaces from the pool. Surfaces in use are never evicted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"all", "optimize"},
						"description": "all evicts every idle surface; optimize evicts only while the pool is under pressure. Default all",
						"default":     "all",
					},
					"images": map[string]interface{}{
						"type":        "boolean",
						"description": "Also drop cached decoded images",
						"default":     false,
					},
				},
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
