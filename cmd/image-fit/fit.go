package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
	"github.com/ironsheep/image-fit/internal/imaging"
)

// fitFlags are the geometry flags shared by resize, geometry and batch.
type fitFlags struct {
	policy     string
	size       string
	scale      string
	padding    string
	background string
	trim       bool
	region     string
}

func (f *fitFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.policy, `policy`, `p`, `contain`, `cover, contain, fill, shrink or grow`)
	fs.StringVarP(&f.size, `size`, `s`, ``, `box as <w>x<h>, <w> or x<h>`)
	fs.StringVar(&f.scale, `scale`, ``, `scale factor as <f> or <fx>x<fy>, used without --size`)
	fs.StringVar(&f.padding, `padding`, ``, `padding as <all>, <vertical>,<horizontal> or <top>,<right>,<bottom>,<left>`)
	fs.StringVarP(&f.background, `background`, `b`, ``, `canvas colour, e.g. #fff or white; transparent when omitted`)
	fs.BoolVar(&f.trim, `trim`, false, `with contain, crop the canvas to the content`)
	fs.StringVar(&f.region, `region`, ``, `part of the source to fit: x1,y1,x2,y2 or `+strings.Join(imaging.RegionNames, `, `))
}

func (f *fitFlags) request() (geometry.Request, error) {
	policy, err := geometry.ParsePolicy(f.policy)
	if err != nil {
		return geometry.Request{}, err
	}
	req := geometry.Request{Policy: policy, Trim: f.trim}

	if f.size != "" {
		if req.Size, err = parseSize(f.size); err != nil {
			return req, err
		}
	} else if f.scale != "" {
		if req.Size, err = parseScale(f.scale); err != nil {
			return req, err
		}
	}
	if req.Padding, err = parsePadding(f.padding); err != nil {
		return req, err
	}
	if f.background != "" {
		bg, err := imaging.ParseColor(f.background)
		if err != nil {
			return req, errs.Invalidf("--background: %v", err)
		}
		req.Background = bg
	}
	return req, req.Validate()
}

// parseSize accepts "300x200", "300", "300x" and "x200".
func parseSize(s string) (geometry.Size, error) {
	w, h, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	var size geometry.Size
	var err error
	if w != "" {
		if size.Width, err = strconv.Atoi(w); err != nil {
			return size, errs.Invalidf("size %q: bad width", s)
		}
	}
	if found && h != "" {
		if size.Height, err = strconv.Atoi(h); err != nil {
			return size, errs.Invalidf("size %q: bad height", s)
		}
	}
	if size.Width == 0 && size.Height == 0 {
		return size, errs.Invalidf("size %q has neither width nor height", s)
	}
	return size, nil
}

// parseScale accepts "0.5" and "0.5x2".
func parseScale(s string) (geometry.Size, error) {
	fx, fy, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	var size geometry.Size
	var err error
	if size.ScaleX, err = strconv.ParseFloat(fx, 64); err != nil {
		return size, errs.Invalidf("scale %q: %v", s, err)
	}
	if found {
		if size.ScaleY, err = strconv.ParseFloat(fy, 64); err != nil {
			return size, errs.Invalidf("scale %q: %v", s, err)
		}
	}
	return size, nil
}

// parsePadding follows the CSS shorthand with one, two or four values.
func parsePadding(s string) (geometry.Padding, error) {
	if strings.TrimSpace(s) == "" {
		return geometry.Padding{}, nil
	}
	parts := strings.Split(s, ",")
	n := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Padding{}, errs.Invalidf("padding %q: %v", s, err)
		}
		n[i] = v
	}

	var pad geometry.Padding
	switch len(n) {
	case 1:
		pad = geometry.Uniform(n[0])
	case 2:
		pad = geometry.Padding{Top: n[0], Right: n[1], Bottom: n[0], Left: n[1]}
	case 4:
		pad = geometry.Padding{Top: n[0], Right: n[1], Bottom: n[2], Left: n[3]}
	default:
		return pad, errs.Invalidf("padding %q: want 1, 2 or 4 values", s)
	}
	return pad, pad.Validate()
}
