package resample

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/transform"
	"github.com/bamiaux/rez"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Imaging uses github.com/disintegration/imaging with a Lanczos filter.
type Imaging struct{}

func (Imaging) Name() string { return "imaging" }

func (Imaging) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	cropped := imaging.Crop(src, sr)
	composite(dst, dr, imaging.Resize(cropped, dr.Dx(), dr.Dy(), imaging.Lanczos))
	return nil
}

// XDraw uses a golang.org/x/image/draw scaler.
type XDraw struct {
	name   string
	scaler xdraw.Scaler
}

// CatmullRom is the highest quality x/image scaler.
func CatmullRom() XDraw { return XDraw{name: "xdraw", scaler: xdraw.CatmullRom} }

// ApproxBiLinear trades quality for speed.
func ApproxBiLinear() XDraw { return XDraw{name: "bilinear", scaler: xdraw.ApproxBiLinear} }

// NearestNeighbor keeps hard pixel edges.
func NearestNeighbor() XDraw { return XDraw{name: "nearest", scaler: xdraw.NearestNeighbor} }

func (x XDraw) Name() string { return x.name }

func (x XDraw) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	scaler := x.scaler
	if scaler == nil {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dr, src, sr, xdraw.Over, nil)
	return nil
}

// Nfnt uses github.com/nfnt/resize with Lanczos3.
type Nfnt struct{}

func (Nfnt) Name() string { return "nfnt" }

func (Nfnt) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	m := resize.Resize(uint(dr.Dx()), uint(dr.Dy()), region(src, sr), resize.Lanczos3)
	composite(dst, dr, m)
	return nil
}

// Gift uses github.com/disintegration/gift with Lanczos resampling.
type Gift struct{}

func (Gift) Name() string { return "gift" }

func (Gift) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	g := gift.New(gift.Resize(dr.Dx(), dr.Dy(), gift.LanczosResampling))
	g.SetParallelization(true)
	g.DrawAt(dst, region(src, sr), dr.Min, gift.OverOperator)
	return nil
}

// Bild uses github.com/anthonynsimon/bild/transform with Lanczos.
type Bild struct{}

func (Bild) Name() string { return "bild" }

func (Bild) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	in := originRGBA(src, sr)
	composite(dst, dr, transform.Resize(in, dr.Dx(), dr.Dy(), transform.Lanczos))
	return nil
}

// Rez uses github.com/bamiaux/rez with a bilinear filter.
type Rez struct{}

var rezConvert = rez.Convert

func (Rez) Name() string { return "rez" }

func (Rez) Draw(dst draw.Image, dr image.Rectangle, src image.Image, sr image.Rectangle) error {
	if err := checkRects(dr, src, sr); err != nil {
		return err
	}
	in := originRGBA(src, sr)

	out := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	if err := rezConvert(out, in, rez.NewBilinearFilter()); err != nil {
		return fmt.Errorf("rez: scaling %v to %v: %w", sr.Size(), dr.Size(), err)
	}
	composite(dst, dr, out)
	return nil
}
