package imaging

import "image"

// Handle is a decoded image ready for drawing.
//
// Handles are read-only once created and may be shared between goroutines.
// The pixel data is never modified by the pipeline; it only reads from it.
type Handle struct {
	img image.Image

	// Format is the decoder that produced the image: "png", "jpeg", "gif",
	// "bmp", "tiff", "webp", or "memory" for images wrapped with NewHandle.
	Format string `json:"format"`

	// MimeType is the sniffed media type of the encoded data.
	MimeType string `json:"mime_type,omitempty"`

	// Source is the file path or content key the image was loaded from.
	Source string `json:"source,omitempty"`

	// SizeBytes is the size of the encoded data.
	SizeBytes int64 `json:"size_bytes"`
}

// NewHandle wraps an already decoded image.
func NewHandle(img image.Image) *Handle {
	return &Handle{img: img, Format: "memory"}
}

// Image returns the decoded image.
func (h *Handle) Image() image.Image { return h.img }

// Width is the image width in pixels.
func (h *Handle) Width() int { return h.img.Bounds().Dx() }

// Height is the image height in pixels.
func (h *Handle) Height() int { return h.img.Bounds().Dy() }

// ImageInfo contains metadata about a loaded image.
//
// This struct provides essential information about an image without requiring
// the caller to analyze the image data directly.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoded format, see Handle.Format.
	Format string `json:"format"`

	// MimeType is the sniffed media type.
	MimeType string `json:"mime_type,omitempty"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded image in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Info returns metadata about the image.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func (h *Handle) Info() *ImageInfo {
	hasAlpha := false
	colorDepth := "8-bit"
	switch h.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         h.Width(),
		Height:        h.Height(),
		Format:        h.Format,
		MimeType:      h.MimeType,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: h.SizeBytes,
	}
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// Dimensions returns just the width and height.
func (h *Handle) Dimensions() *DimensionsResult {
	return &DimensionsResult{Width: h.Width(), Height: h.Height()}
}
