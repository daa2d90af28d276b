// Package encoder serialises a drawn image to bytes.
package encoder

import (
	"bytes"
	"encoding/base64"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-fit/internal/errs"
)

// DefaultQuality is used for lossy formats when Options.Quality is zero.
const DefaultQuality = 0.92

// Options select the output format.
type Options struct {
	// Format defaults to PNG.
	Format Format `json:"format,omitempty" toml:"format"`

	// Quality in [0,1] applies to lossy formats. Zero selects DefaultQuality.
	Quality float64 `json:"quality,omitempty" toml:"quality"`
}

// Validate checks the options without encoding anything.
func (o Options) Validate() error {
	if math.IsNaN(o.Quality) || o.Quality < 0 || o.Quality > 1 {
		return errs.Invalidf("quality %g must be within [0,1]", o.Quality)
	}
	_, err := ParseFormat(string(o.Format))
	return err
}

// Artifact is an encoded image.
type Artifact struct {
	Bytes    []byte `json:"-"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   Format `json:"format"`
	MimeType string `json:"mime_type"`
}

// Base64 returns the standard base64 encoding of the bytes.
func (a *Artifact) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Bytes)
}

// DataURL returns the artifact as a data: URL.
func (a *Artifact) DataURL() string {
	return "data:" + a.MimeType + ";base64," + a.Base64()
}

// WriteFile writes the bytes to path.
func (a *Artifact) WriteFile(path string) error {
	if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
		return errs.Wrap(err)
	}
	return nil
}

// Encode serialises img. PNG, BMP and TIFF are lossless, GIF is quantised to
// a 256 colour palette and JPEG honours Quality. WebP is refused with
// ErrEncodingFailed.
func Encode(img image.Image, opts Options) (*Artifact, error) {
	if img == nil {
		return nil, errs.Invalidf("nothing to encode")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errs.Invalidf("cannot encode an empty %dx%d image", b.Dx(), b.Dy())
	}

	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	target, ok := imagingFormats[format]
	if !ok {
		return nil, errs.Encoding(nil, "no %s encoder available", format)
	}

	var encOpts []imaging.EncodeOption
	if format == JPEG {
		encOpts = append(encOpts, imaging.JPEGQuality(jpegQuality(opts.Quality)))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, encOpts...); err != nil {
		return nil, errs.Encoding(err, "encoding %s", format)
	}

	return &Artifact{
		Bytes:    buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   format,
		MimeType: format.MimeType(),
	}, nil
}

// jpegQuality maps [0,1] to the 1..100 scale of image/jpeg.
func jpegQuality(q float64) int {
	if q == 0 {
		q = DefaultQuality
	}
	return max(1, min(100, int(math.Round(q*100))))
}
