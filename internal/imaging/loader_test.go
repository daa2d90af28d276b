package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// solidImage creates an in-memory image filled with one colour.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodePNG returns the PNG encoding of a solid image.
func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImage writes a solid PNG into the test's temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	if err := os.WriteFile(path, encodePNG(t, width, height, c), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	loader := NewLoader(0)
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	h1, err := loader.LoadFile(imgPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if h1.Width() != 100 || h1.Height() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", h1.Width(), h1.Height())
	}
	if h1.Format != "png" {
		t.Errorf("Format: got %q, want png", h1.Format)
	}
	if h1.MimeType != "image/png" {
		t.Errorf("MimeType: got %q, want image/png", h1.MimeType)
	}
	if h1.Source != imgPath {
		t.Errorf("Source: got %q, want %q", h1.Source, imgPath)
	}

	// Second load should return cached handle
	h2, err := loader.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if h1 != h2 {
		t.Error("second Load did not return cached handle")
	}
}

func TestLoader_LoadFile_NonExistent(t *testing.T) {
	loader := NewLoader(0)
	if _, err := loader.LoadFile("/nonexistent/path/to/image.png"); err == nil {
		t.Error("LoadFile should fail for non-existent file")
	}
}

func TestLoader_LoadFile_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("just some text, not pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(0).LoadFile(path); err == nil {
		t.Error("LoadFile should fail for non-image content")
	}
}

func TestLoader_LoadBytes(t *testing.T) {
	loader := NewLoader(0)
	data := encodePNG(t, 12, 7, color.White)

	h1, err := loader.LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if h1.Width() != 12 || h1.Height() != 7 {
		t.Errorf("unexpected dimensions: got %dx%d, want 12x7", h1.Width(), h1.Height())
	}
	if h1.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes: got %d, want %d", h1.SizeBytes, len(data))
	}

	h2, err := loader.LoadBytes(append([]byte(nil), data...))
	if err != nil {
		t.Fatalf("second LoadBytes failed: %v", err)
	}
	if h1 != h2 {
		t.Error("identical bytes should hit the cache")
	}

	if _, err := loader.LoadBytes(nil); err == nil {
		t.Error("LoadBytes should fail for empty data")
	}
}

func TestLoader_Formats(t *testing.T) {
	src := solidImage(20, 10, color.RGBA{0, 0, 255, 255})

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
		format string
	}{
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) }, "jpeg"},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }, "bmp"},
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			h, err := NewLoader(0).LoadBytes(buf.Bytes())
			if err != nil {
				t.Fatalf("LoadBytes failed: %v", err)
			}
			if h.Format != tt.format {
				t.Errorf("Format: got %q, want %q", h.Format, tt.format)
			}
			if h.Width() != 20 || h.Height() != 10 {
				t.Errorf("unexpected dimensions: got %dx%d, want 20x10", h.Width(), h.Height())
			}
		})
	}
}

func TestLoader_LoadDataURL(t *testing.T) {
	data := encodePNG(t, 5, 6, color.Black)

	tests := []struct {
		name string
		url  string
	}{
		{"base64", "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)},
		{"unpadded base64", "data:image/png;base64," + base64.RawStdEncoding.EncodeToString(data)},
		{"percent encoded", "data:image/png," + url.PathEscape(string(data))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewLoader(0).Load(tt.url)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if h.Width() != 5 || h.Height() != 6 {
				t.Errorf("unexpected dimensions: got %dx%d, want 5x6", h.Width(), h.Height())
			}
		})
	}
}

func TestLoader_LoadDataURL_Malformed(t *testing.T) {
	tests := []string{
		"data:image/png;base64",
		"data:image/png;base64,!!!not base64!!!",
		"image/png;base64,AAAA",
	}

	loader := NewLoader(0)
	for _, u := range tests {
		if _, err := loader.LoadDataURL(u); err == nil {
			t.Errorf("LoadDataURL(%q) should fail", u)
		}
	}
}

func TestLoader_EvictAndClear(t *testing.T) {
	loader := NewLoader(0)
	path1 := createTestImage(t, 10, 10, color.White)
	path2 := createTestImage(t, 20, 20, color.Black)

	for _, p := range []string{path1, path2} {
		if _, err := loader.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	if loader.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", loader.Len())
	}

	loader.Evict(path1)
	if loader.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", loader.Len())
	}

	loader.Clear()
	if loader.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", loader.Len())
	}
}

func TestLoader_BoundedCache(t *testing.T) {
	loader := NewLoader(2)
	for i := 1; i <= 3; i++ {
		if _, err := loader.LoadBytes(encodePNG(t, i, i, color.White)); err != nil {
			t.Fatalf("LoadBytes failed: %v", err)
		}
	}
	if loader.Len() != 2 {
		t.Errorf("Len: got %d, want 2", loader.Len())
	}
}

func TestLoader_Concurrent(t *testing.T) {
	loader := NewLoader(0)
	imgPath := createTestImage(t, 50, 50, color.RGBA{0, 255, 0, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestHandle_Info(t *testing.T) {
	h := NewHandle(image.NewNRGBA64(image.Rect(0, 0, 3, 4)))
	info := h.Info()

	if info.Width != 3 || info.Height != 4 {
		t.Errorf("unexpected dimensions: got %dx%d, want 3x4", info.Width, info.Height)
	}
	if info.ColorDepth != "16-bit" || !info.HasAlpha {
		t.Errorf("got depth %s alpha %v, want 16-bit with alpha", info.ColorDepth, info.HasAlpha)
	}
	if info.Format != "memory" {
		t.Errorf("Format: got %q, want memory", info.Format)
	}

	d := h.Dimensions()
	if d.Width != 3 || d.Height != 4 {
		t.Errorf("Dimensions: got %dx%d, want 3x4", d.Width, d.Height)
	}
}
