package imaging

import (
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-fit/internal/errs"
)

// RegionNames lists the named regions accepted by ParseRegion.
var RegionNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// ParseRegion resolves a region of an image with the given bounds.
//
// The region is either a name from RegionNames or "x1,y1,x2,y2" in pixel
// coordinates relative to the image's top-left corner, with x2 and y2
// exclusive.
func ParseRegion(s string, bounds image.Rectangle) (image.Rectangle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 4 {
			return image.Rectangle{}, errs.Invalidf("region %q: want x1,y1,x2,y2", s)
		}
		var n [4]int
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return image.Rectangle{}, errs.Invalidf("region %q: %v", s, err)
			}
			n[i] = v
		}
		return image.Rect(n[0], n[1], n[2], n[3]).Add(bounds.Min), nil
	}

	w, h := bounds.Dx(), bounds.Dy()
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch s {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		// Center 50% of the image
		qW, qH := w/4, h/4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return image.Rectangle{}, errs.Invalidf("unknown region %q", s)
	}
	return image.Rect(x1, y1, x2, y2).Add(bounds.Min), nil
}

// ResolveRegion parses spec and checks that it is a non-empty part of bounds.
func ResolveRegion(spec string, bounds image.Rectangle) (image.Rectangle, error) {
	r, err := ParseRegion(spec, bounds)
	if err != nil {
		return image.Rectangle{}, err
	}
	return r, checkRegion(r, bounds)
}

func checkRegion(r, bounds image.Rectangle) error {
	if r.Empty() {
		return errs.Invalidf("region %v is empty", r)
	}
	if !r.In(bounds) {
		return errs.Invalidf("region %v outside image bounds %v", r, bounds)
	}
	return nil
}

// Region returns a handle over r, a rectangle in the image's own coordinate
// space. The pixels are shared with h when the image supports SubImage.
func (h *Handle) Region(r image.Rectangle) (*Handle, error) {
	if err := checkRegion(r, h.img.Bounds()); err != nil {
		return nil, err
	}

	var img image.Image
	if si, ok := h.img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		img = si.SubImage(r)
	} else {
		img = imaging.Crop(h.img, r)
	}

	return &Handle{
		img:       img,
		Format:    h.Format,
		MimeType:  h.MimeType,
		Source:    h.Source,
		SizeBytes: h.SizeBytes,
	}, nil
}

// SelectRegion is ParseRegion followed by Region. An empty spec returns h.
func (h *Handle) SelectRegion(spec string) (*Handle, error) {
	if strings.TrimSpace(spec) == "" {
		return h, nil
	}
	r, err := ResolveRegion(spec, h.img.Bounds())
	if err != nil {
		return nil, err
	}
	return h.Region(r)
}
