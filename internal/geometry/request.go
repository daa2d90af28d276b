package geometry

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/ironsheep/image-fit/internal/errs"
)

// Policy selects how a source is mapped into the target box.
type Policy int

// Fit policies. The zero value is not a valid policy.
const (
	PolicyUnset Policy = iota
	Cover
	Contain
	Fill
	ShrinkOnly
	GrowOnly
)

var policyNames = map[Policy]string{
	Cover:      "cover",
	Contain:    "contain",
	Fill:       "fill",
	ShrinkOnly: "shrink",
	GrowOnly:   "grow",
}

var policyAliases = map[string]Policy{
	"cover":         Cover,
	"center-crop":   Cover,
	"contain":       Contain,
	"center-inside": Contain,
	"fill":          Fill,
	"stretch":       Fill,
	"shrink":        ShrinkOnly,
	"shrink-only":   ShrinkOnly,
	"fit-within":    ShrinkOnly,
	"grow":          GrowOnly,
	"grow-only":     GrowOnly,
	"fit-at-least":  GrowOnly,
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Valid reports whether p is one of the five fit policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParsePolicy parses a policy name. Matching is case-insensitive and accepts
// the aliases center-crop, center-inside, stretch, shrink-only, grow-only,
// fit-within and fit-at-least.
func ParsePolicy(s string) (Policy, error) {
	if p, ok := policyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return PolicyUnset, errs.Invalidf("unknown fit policy %q", s)
}

// MarshalText encodes the policy by name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts any name ParsePolicy does.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Padding is the space kept free around the drawn content, in pixels.
type Padding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Uniform returns a Padding with n pixels on every side.
func Uniform(n int) Padding {
	return Padding{Top: n, Right: n, Bottom: n, Left: n}
}

// Horizontal is Left + Right.
func (p Padding) Horizontal() int { return p.Left + p.Right }

// Vertical is Top + Bottom.
func (p Padding) Vertical() int { return p.Top + p.Bottom }

// Validate rejects negative sides.
func (p Padding) Validate() error {
	if p.Top < 0 || p.Right < 0 || p.Bottom < 0 || p.Left < 0 {
		return errs.Invalidf("padding must be non-negative, got %+v", p)
	}
	return nil
}

// Size describes the target box.
//
// An explicit Width/Height pair wins over a scale factor. When only one of
// Width and Height is set the other follows the source aspect ratio. ScaleY
// defaults to ScaleX for uniform scaling.
type Size struct {
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	ScaleX float64 `json:"scale_x,omitempty"`
	ScaleY float64 `json:"scale_y,omitempty"`
}

// Explicit reports whether the size carries a width or height.
func (s Size) Explicit() bool { return s.Width != 0 || s.Height != 0 }

// Scaled reports whether the size carries a scale factor.
func (s Size) Scaled() bool { return s.ScaleX != 0 || s.ScaleY != 0 }

// Resolve returns the box dimensions for a source of srcW x srcH pixels.
func (s Size) Resolve(srcW, srcH int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, errs.Invalidf("source dimensions %dx%d must be positive", srcW, srcH)
	}

	switch {
	case s.Explicit():
		if s.Width < 0 || s.Height < 0 {
			return 0, 0, errs.Invalidf("size %dx%d must not be negative", s.Width, s.Height)
		}
		w, h := s.Width, s.Height
		if w == 0 {
			w = int(math.Round(round4(float64(h) * float64(srcW) / float64(srcH))))
		}
		if h == 0 {
			h = int(math.Round(round4(float64(w) * float64(srcH) / float64(srcW))))
		}
		if w <= 0 || h <= 0 {
			return 0, 0, errs.Invalidf("size resolves to %dx%d", w, h)
		}
		return w, h, nil

	case s.Scaled():
		sx, sy := s.ScaleX, s.ScaleY
		if sy == 0 {
			sy = sx
		}
		if sx == 0 {
			sx = sy
		}
		if !(sx > 0) || !(sy > 0) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
			return 0, 0, errs.Invalidf("scale %gx%g must be positive", sx, sy)
		}
		w := int(math.Round(round4(float64(srcW) * sx)))
		h := int(math.Round(round4(float64(srcH) * sy)))
		if w <= 0 || h <= 0 {
			return 0, 0, errs.Invalidf("scale %gx%g resolves to %dx%d", sx, sy, w, h)
		}
		return w, h, nil
	}

	return 0, 0, errs.Invalidf("neither size nor scale given")
}

// Request is a complete resize request.
type Request struct {
	Policy  Policy
	Size    Size
	Padding Padding

	// Background is painted over the whole canvas before drawing. Nil leaves
	// the canvas transparent.
	Background color.Color

	// Trim crops Contain output to the scaled content instead of keeping the
	// full box. Other policies ignore it.
	Trim bool
}

// Validate checks the parts of the request that do not depend on the source.
func (r Request) Validate() error {
	if r.Policy == PolicyUnset {
		return errs.Invalidf("no fit policy set")
	}
	if !r.Policy.Valid() {
		return errs.Invalidf("unknown fit policy %d", int(r.Policy))
	}
	if err := r.Padding.Validate(); err != nil {
		return err
	}
	if !r.Size.Explicit() && !r.Size.Scaled() {
		return errs.Invalidf("neither size nor scale given")
	}
	if math.IsNaN(r.Size.ScaleX) || math.IsNaN(r.Size.ScaleY) {
		return errs.Invalidf("scale must be a number")
	}
	return nil
}

// Plan is the output of the geometry calculation.
type Plan struct {
	Policy Policy `json:"policy"`

	// ScaleX and ScaleY are rounded to 4 decimal places. They are equal for
	// every policy except Fill.
	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`

	// Src is the region of the source that is read.
	Src image.Rectangle `json:"src"`

	// Dst is where Src lands on the canvas, padding included.
	Dst image.Rectangle `json:"dst"`

	// Canvas is the size of the output surface.
	Canvas image.Point `json:"canvas"`
}

// Content is the size of the drawn image without padding or margins.
func (p Plan) Content() image.Point { return p.Dst.Size() }
