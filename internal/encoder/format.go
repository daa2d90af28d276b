package encoder

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-fit/internal/errs"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"

	// WebP is recognised so that requests for it fail with ErrEncodingFailed
	// rather than as an unknown format. There is no encoder for it.
	WebP Format = "webp"
)

var formatAliases = map[string]Format{
	"png":        PNG,
	"image/png":  PNG,
	"jpeg":       JPEG,
	"jpg":        JPEG,
	"image/jpeg": JPEG,
	"gif":        GIF,
	"image/gif":  GIF,
	"bmp":        BMP,
	"image/bmp":  BMP,
	"tiff":       TIFF,
	"tif":        TIFF,
	"image/tiff": TIFF,
	"webp":       WebP,
	"image/webp": WebP,
}

var imagingFormats = map[Format]imaging.Format{
	PNG:  imaging.PNG,
	JPEG: imaging.JPEG,
	GIF:  imaging.GIF,
	BMP:  imaging.BMP,
	TIFF: imaging.TIFF,
}

// ParseFormat accepts a format name, a common extension without the dot, or
// a MIME type. The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PNG, nil
	}
	if f, ok := formatAliases[s]; ok {
		return f, nil
	}
	return "", errs.Invalidf("unknown output format %q", s)
}

// FormatFromFilename picks the format from the file extension.
func FormatFromFilename(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errs.Invalidf("cannot tell output format of %q without an extension", path)
	}
	return ParseFormat(ext)
}

// MimeType returns the IANA media type.
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// Extension returns the usual file extension including the dot.
func (f Format) Extension() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Lossless reports whether encoding keeps every pixel value. GIF is
// palette-quantised and JPEG is lossy.
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	}
	return false
}
