package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder
	_ "image/png" // Register PNG format decoder
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/jpegn" // Registers the JPEG format decoder
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultCacheSize is the number of decoded images a Loader keeps by default.
const DefaultCacheSize = 32

// Loader decodes images from files, raw bytes and data: URLs and keeps the
// most recently used ones in memory.
//
// Decoded images are cached in a fixed-size LRU keyed by file path, or by the
// SHA-256 of the content for bytes and data URLs. Once an image is loaded,
// subsequent calls for the same key return the cached Handle without decoding
// again.
//
// Loader is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// The cache holds at most the configured number of handles; the least
// recently used one is dropped when a new image is added. Evict and Clear
// release memory explicitly.
//
// # Example Usage
//
//	loader := imaging.NewLoader(0)
//	h, err := loader.Load("/path/to/image.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(h.Width(), h.Height())
type Loader struct {
	cache *lru.Cache[string, *Handle]
}

// NewLoader creates a loader caching up to size images. A size of zero or
// less selects DefaultCacheSize.
func NewLoader(size int) *Loader {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *Handle](size)
	return &Loader{cache: cache}
}

// Load dispatches on the source string: values starting with "data:" are
// decoded as data URLs, everything else is treated as a file path.
func (l *Loader) Load(source string) (*Handle, error) {
	if strings.HasPrefix(source, "data:") {
		return l.LoadDataURL(source)
	}
	return l.LoadFile(source)
}

// LoadFile retrieves an image from the cache or decodes it from disk.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Returns:
//   - *Handle: The decoded image with its format and size.
//   - error: Non-nil if the file cannot be read or decoded.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate cache entries.
//
// # Orientation
//
// JPEG files are decoded with github.com/gen2brain/jpegn and rotated according
// to their EXIF orientation tag, so Width and Height describe the image as it
// is meant to be viewed.
func (l *Loader) LoadFile(path string) (*Handle, error) {
	if h, ok := l.cache.Get(path); ok {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	h, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	h.Source = path

	l.cache.Add(path, h)
	return h, nil
}

// LoadBytes decodes an encoded image held in memory. The content hash is the
// cache key, so loading the same bytes twice decodes once.
func (l *Loader) LoadBytes(data []byte) (*Handle, error) {
	key := contentKey(data)
	if h, ok := l.cache.Get(key); ok {
		return h, nil
	}

	h, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	h.Source = key

	l.cache.Add(key, h)
	return h, nil
}

// LoadDataURL decodes a data: URL such as "data:image/png;base64,iVBOR...".
// Both base64 and percent-encoded payloads are accepted. The media type in the
// URL is informational only; the format is sniffed from the payload.
func (l *Loader) LoadDataURL(dataURL string) (*Handle, error) {
	data, err := parseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return l.LoadBytes(data)
}

// Evict removes one entry by its cache key: the path for files, or the
// Handle's Source for bytes and data URLs.
func (l *Loader) Evict(key string) {
	l.cache.Remove(key)
}

// Clear removes all images from the cache.
func (l *Loader) Clear() {
	l.cache.Purge()
}

// Len returns the number of cached images.
func (l *Loader) Len() int {
	return l.cache.Len()
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// decode sniffs the content type and decodes data into a Handle.
func decode(data []byte) (*Handle, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("unsupported content type %s", mt.String())
	}

	var (
		img    image.Image
		format string
		err    error
	)
	if mt.Is("image/jpeg") {
		img, err = jpegn.Decode(bytes.NewReader(data), &jpegn.Options{
			AutoRotate:     true,
			UpsampleMethod: jpegn.CatmullRom,
		})
		format = "jpeg"
	} else {
		img, format, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}

	return &Handle{
		img:       img,
		Format:    format,
		MimeType:  mt.String(),
		SizeBytes: int64(len(data)),
	}, nil
}

func parseDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL: missing comma")
	}

	if strings.HasSuffix(meta, ";base64") {
		payload = strings.TrimSpace(payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("malformed data URL payload: %w", err)
		}
		return data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL payload: %w", err)
	}
	return []byte(unescaped), nil
}
