package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/image-fit/internal/encoder"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
	"github.com/ironsheep/image-fit/internal/imaging"
	"github.com/ironsheep/image-fit/internal/pipeline"
	"github.com/ironsheep/image-fit/internal/resample"
	"github.com/ironsheep/image-fit/internal/surface"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_resize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolErrorData is attached to a -32000 error response.
type ToolErrorData struct {
	// Kind is one of invalid_resize_option, surface_allocation_failed,
	// encoding_failed, cancelled or internal.
	Kind string `json:"kind"`

	// Detail is the Go error string.
	Detail string `json:"detail"`

	// Stats is the pool state at the time of a surface allocation failure.
	Stats *surface.Stats `json:"stats,omitempty"`
}

func toolErrorData(err error) ToolErrorData {
	data := ToolErrorData{Kind: errorKind(err), Detail: err.Error()}
	var allocErr *surface.AllocationError
	if errors.As(err, &allocErr) {
		data.Stats = &allocErr.Stats
	}
	return data
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolErrorData payload naming the failure class.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", toolErrorData(err))
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
//  3. Loads images through the cached loader as needed
//  4. Calls into geometry, pipeline or the surface pool
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Resize Operations
	case "image_resize":
		return s.handleImageResize(ctx, args)
	case "image_geometry":
		return s.handleImageGeometry(args)

	// Pool Operations
	case "image_pool_stats":
		return s.handlePoolStats()
	case "image_pool_clear":
		return s.handlePoolClear(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

func errorKind(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidResizeOption):
		return "invalid_resize_option"
	case errors.Is(err, errs.ErrSurfaceAllocationFailed):
		return "surface_allocation_failed"
	case errors.Is(err, errs.ErrEncodingFailed):
		return "encoding_failed"
	case errs.IsCancelled(err):
		return "cancelled"
	}
	return "internal"
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h, err := s.loader.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return h.Info(), nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h, err := s.loader.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return h.Dimensions(), nil
}

// === Resize Operation Handlers ===

// paddingArg accepts either a number (uniform) or an object with
// top/right/bottom/left.
type paddingArg geometry.Padding

func (p *paddingArg) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		if string(b) == "null" {
			return nil
		}
		n, err := strconv.Atoi(string(b))
		if err != nil {
			return fmt.Errorf("padding must be an integer or an object: %w", err)
		}
		*p = paddingArg(geometry.Uniform(n))
		return nil
	}
	var sides geometry.Padding
	if err := json.Unmarshal(b, &sides); err != nil {
		return err
	}
	*p = paddingArg(sides)
	return nil
}

type fitArgs struct {
	Policy     string     `json:"policy"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	ScaleX     float64    `json:"scale_x"`
	ScaleY     float64    `json:"scale_y"`
	Padding    paddingArg `json:"padding"`
	Background string     `json:"background"`
	Trim       bool       `json:"trim"`

	// Region selects part of the source before fitting.
	Region string `json:"region"`
}

func (a fitArgs) request() (geometry.Request, error) {
	if a.Policy == "" {
		a.Policy = geometry.Contain.String()
	}
	policy, err := geometry.ParsePolicy(a.Policy)
	if err != nil {
		return geometry.Request{}, err
	}
	req := geometry.Request{
		Policy:  policy,
		Size:    geometry.Size{Width: a.Width, Height: a.Height, ScaleX: a.ScaleX, ScaleY: a.ScaleY},
		Padding: geometry.Padding(a.Padding),
		Trim:    a.Trim,
	}
	if a.Background != "" {
		bg, err := imaging.ParseColor(a.Background)
		if err != nil {
			return geometry.Request{}, errs.Invalidf("background: %v", err)
		}
		req.Background = bg
	}
	return req, req.Validate()
}

type imageResizeArgs struct {
	Path string `json:"path"`
	fitArgs

	Format     string   `json:"format"`
	Quality    float64  `json:"quality"`
	Stages     []string `json:"stages"`
	Resampler  string   `json:"resampler"`
	OutputPath string   `json:"output_path"`
}

// ResizeResult describes an encoded resize.
type ResizeResult struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Format    encoder.Format `json:"format"`
	MimeType  string         `json:"mime_type"`
	SizeBytes int            `json:"size_bytes"`
	Size      string         `json:"size"`
	Plan      geometry.Plan  `json:"plan"`

	// OutputPath is set when the result was written to disk; otherwise
	// DataURL carries the bytes.
	OutputPath string `json:"output_path,omitempty"`
	DataURL    string `json:"data_url,omitempty"`
}

func (s *Server) handleImageResize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageResizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	req, err := a.request()
	if err != nil {
		return nil, err
	}

	opts := s.output
	if a.Format != "" {
		opts.Format = encoder.Format(a.Format)
	}
	if a.Quality != 0 {
		opts.Quality = a.Quality
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	name := a.Resampler
	if name == "" {
		name = s.resampler
	}
	r, err := resample.ByName(name)
	if err != nil {
		return nil, err
	}

	stages, err := pipeline.ParseStages(a.Stages)
	if err != nil {
		return nil, err
	}

	h, err := s.loader.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if h, err = h.SelectRegion(a.Region); err != nil {
		return nil, err
	}

	plan, err := geometry.PlanRequest(req, h.Width(), h.Height())
	if err != nil {
		return nil, err
	}

	p := pipeline.New(s.pool,
		pipeline.WithResampler(r),
		pipeline.WithStages(stages...),
		pipeline.WithLogger(s.log.Named("pipeline")),
	)
	art, err := p.Render(ctx, h.Image(), req, opts)
	if err != nil {
		return nil, err
	}

	res := &ResizeResult{
		Width:     art.Width,
		Height:    art.Height,
		Format:    art.Format,
		MimeType:  art.MimeType,
		SizeBytes: len(art.Bytes),
		Size:      humanize.IBytes(uint64(len(art.Bytes))),
		Plan:      plan,
	}
	if a.OutputPath != "" {
		if err := art.WriteFile(a.OutputPath); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
	} else {
		res.DataURL = art.DataURL()
	}

	s.log.Debug("resized", "source", h.Source, "policy", req.Policy, "width", res.Width, "height", res.Height, "size", res.Size)
	return res, nil
}

type imageGeometryArgs struct {
	Path         string `json:"path"`
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	fitArgs
}

// GeometryResult is the plan for a request without drawing anything.
type GeometryResult struct {
	SourceWidth  int           `json:"source_width"`
	SourceHeight int           `json:"source_height"`
	BoxWidth     int           `json:"box_width"`
	BoxHeight    int           `json:"box_height"`
	Plan         geometry.Plan `json:"plan"`
}

func (s *Server) handleImageGeometry(args json.RawMessage) (interface{}, error) {
	var a imageGeometryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	req, err := a.request()
	if err != nil {
		return nil, err
	}

	srcW, srcH := a.SourceWidth, a.SourceHeight
	if a.Path != "" {
		h, err := s.loader.Load(a.Path)
		if err != nil {
			return nil, err
		}
		srcW, srcH = h.Width(), h.Height()
	}
	if a.Region != "" {
		r, err := imaging.ResolveRegion(a.Region, image.Rect(0, 0, srcW, srcH))
		if err != nil {
			return nil, err
		}
		srcW, srcH = r.Dx(), r.Dy()
	}

	boxW, boxH, err := req.Size.Resolve(srcW, srcH)
	if err != nil {
		return nil, err
	}
	plan, err := geometry.PlanRequest(req, srcW, srcH)
	if err != nil {
		return nil, err
	}

	return &GeometryResult{
		SourceWidth:  srcW,
		SourceHeight: srcH,
		BoxWidth:     boxW,
		BoxHeight:    boxH,
		Plan:         plan,
	}, nil
}

// === Pool Operation Handlers ===

// PoolStatsResult adds readable sizes to surface.Stats.
type PoolStatsResult struct {
	surface.Stats
	Memory       string `json:"memory"`
	CachedImages int    `json:"cached_images"`
}

func (s *Server) poolStats() *PoolStatsResult {
	st := s.pool.Stats()
	return &PoolStatsResult{
		Stats:        st,
		Memory:       humanize.IBytes(uint64(st.MemoryBytes)),
		CachedImages: s.loader.Len(),
	}
}

func (s *Server) handlePoolStats() (interface{}, error) {
	return s.poolStats(), nil
}

type poolClearArgs struct {
	// Mode is "all" (default) or "optimize".
	Mode string `json:"mode"`

	// Images also drops decoded images from the loader cache.
	Images bool `json:"images"`
}

// PoolClearResult reports what a clear removed.
type PoolClearResult struct {
	Evicted int              `json:"evicted"`
	Stats   *PoolStatsResult `json:"stats"`
}

func (s *Server) handlePoolClear(args json.RawMessage) (interface{}, error) {
	var a poolClearArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var evicted int
	switch a.Mode {
	case "", "all":
		evicted = s.pool.Clear()
	case "optimize":
		evicted = s.pool.Optimize()
	default:
		return nil, errs.Invalidf("unknown clear mode %q", a.Mode)
	}
	if a.Images {
		s.loader.Clear()
	}

	s.log.Info("pool cleared", "mode", a.Mode, "evicted", evicted)
	return &PoolClearResult{Evicted: evicted, Stats: s.poolStats()}, nil
}
