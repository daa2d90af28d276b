// Package resample scales a source region into a destination rectangle.
//
// Each Resampler wraps one image library. They all composite the scaled
// pixels over whatever is already on the destination, so a background painted
// first shows through transparent source pixels.
package resample

import (
	"image"
	"image/draw"
	"sort"
	"strings"

	"github.com/ironsheep/image-fit/internal/errs"
)

// Resampler draws the sr region of src scaled to fill dr on dst.
type Resampler interface {
	Name() string
	Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error
}

// DefaultName is the resampler used when none is configured.
const DefaultName = "imaging"

var registry = map[string]func() Resampler{
	"imaging":  func() Resampler { return Imaging{} },
	"xdraw":    func() Resampler { return CatmullRom() },
	"bilinear": func() Resampler { return ApproxBiLinear() },
	"nearest":  func() Resampler { return NearestNeighbor() },
	"nfnt":     func() Resampler { return Nfnt{} },
	"gift":     func() Resampler { return Gift{} },
	"bild":     func() Resampler { return Bild{} },
	"rez":      func() Resampler { return Rez{} },
}

// ByName returns the named resampler. The empty name selects DefaultName.
func ByName(name string) (Resampler, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	f, ok := registry[name]
	if !ok {
		return nil, errs.Invalidf("unknown resampler %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

// Default returns the default resampler.
func Default() Resampler { return Imaging{} }

// Names lists the registered resamplers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func checkRects(dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if dr.Empty() {
		return errs.Invalidf("destination rectangle %v is empty", dr)
	}
	if sr.Empty() || !sr.In(src.Bounds()) {
		return errs.Invalidf("source rectangle %v is empty or outside %v", sr, src.Bounds())
	}
	return nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// region returns the sr part of src with its bounds starting at sr.Min.
func region(src image.Image, sr image.Rectangle) image.Image {
	if sr == src.Bounds() {
		return src
	}
	if s, ok := src.(subImager); ok {
		return s.SubImage(sr)
	}
	dst := image.NewNRGBA(sr)
	draw.Draw(dst, sr, src, sr.Min, draw.Src)
	return dst
}

// originRGBA copies the sr part of src into an RGBA image anchored at 0,0.
func originRGBA(src image.Image, sr image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	draw.Draw(dst, dst.Bounds(), src, sr.Min, draw.Src)
	return dst
}

// composite draws a pre-scaled image over dr.
func composite(dst draw.Image, dr image.Rectangle, scaled image.Image) {
	draw.Draw(dst, dr, scaled, scaled.Bounds().Min, draw.Over)
}
