package encoder

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-fit/internal/errs"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func TestEncode_LosslessRoundTrip(t *testing.T) {
	src := gradient(37, 23)

	for _, f := range []Format{PNG, BMP, TIFF} {
		t.Run(string(f), func(t *testing.T) {
			art, err := Encode(src, Options{Format: f})
			require.NoError(t, err)
			assert.Equal(t, 37, art.Width)
			assert.Equal(t, 23, art.Height)
			assert.Equal(t, f, art.Format)
			assert.Equal(t, "image/"+string(f), art.MimeType)

			decoded, err := imaging.Decode(bytes.NewReader(art.Bytes))
			require.NoError(t, err)
			assert.Equal(t, src.Bounds().Size(), decoded.Bounds().Size())

			got := color.NRGBAModel.Convert(decoded.At(10, 5)).(color.NRGBA)
			assert.Equal(t, src.NRGBAAt(10, 5), got)
		})
	}
}

func TestEncode_GIFKeepsDimensions(t *testing.T) {
	art, err := Encode(gradient(16, 9), Options{Format: GIF})
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(art.Bytes))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 9), decoded.Bounds().Size())
}

func TestEncode_JPEGQuality(t *testing.T) {
	src := gradient(64, 64)

	low, err := Encode(src, Options{Format: JPEG, Quality: 0.1})
	require.NoError(t, err)
	high, err := Encode(src, Options{Format: JPEG, Quality: 1})
	require.NoError(t, err)

	assert.Less(t, len(low.Bytes), len(high.Bytes))
	assert.Equal(t, "image/jpeg", high.MimeType)
}

func TestEncode_Errors(t *testing.T) {
	src := gradient(4, 4)

	tests := []struct {
		name string
		img  image.Image
		opts Options
		want error
	}{
		{"webp refused", src, Options{Format: WebP}, errs.ErrEncodingFailed},
		{"quality above one", src, Options{Format: JPEG, Quality: 1.5}, errs.ErrInvalidResizeOption},
		{"negative quality", src, Options{Quality: -0.1}, errs.ErrInvalidResizeOption},
		{"nan quality", src, Options{Quality: math.NaN()}, errs.ErrInvalidResizeOption},
		{"unknown format", src, Options{Format: "heic"}, errs.ErrInvalidResizeOption},
		{"nil image", nil, Options{}, errs.ErrInvalidResizeOption},
		{"empty image", image.NewNRGBA(image.Rectangle{}), Options{}, errs.ErrInvalidResizeOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.img, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestArtifact_DataURLAndFile(t *testing.T) {
	art, err := Encode(gradient(8, 8), Options{})
	require.NoError(t, err)
	assert.Equal(t, PNG, art.Format)

	url := art.DataURL()
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, art.Bytes, raw)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, art.WriteFile(path))
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, art.Bytes, onDisk)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", PNG},
		{"PNG", PNG},
		{"jpg", JPEG},
		{"image/jpeg", JPEG},
		{"tif", TIFF},
		{"webp", WebP},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("svg")
	assert.ErrorIs(t, err, errs.ErrInvalidResizeOption)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("/tmp/photo.JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	assert.Equal(t, ".jpg", f.Extension())
	assert.False(t, f.Lossless())

	f, err = FormatFromFilename("scan.tiff")
	require.NoError(t, err)
	assert.True(t, f.Lossless())

	_, err = FormatFromFilename("noext")
	assert.ErrorIs(t, err, errs.ErrInvalidResizeOption)
}
