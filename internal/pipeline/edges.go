package pipeline

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
)

// Edges replaces the drawn content with a Canny edge map: edge pixels white,
// the rest black. Pixels outside plan.Dst are left alone. low and high are
// hysteresis thresholds in [0,255].
//
// The steps are BT.601 luminance, a 5x5 gaussian blur, Sobel gradients,
// non-maximum suppression and hysteresis against the 8-neighbourhood.
func Edges(low, high int) Stage {
	return Stage{
		Name:  "edges",
		Phase: PhaseAfterDraw,
		Apply: func(ctx context.Context, canvas *image.NRGBA, plan geometry.Plan) error {
			r := plan.Dst.Intersect(canvas.Bounds())
			if r.Empty() {
				return nil
			}
			return edgeMap(ctx, canvas, r, float64(low)/255, float64(high)/255)
		},
	}
}

// field is a w*h grid of floats stored row-major.
type field struct {
	w, h int
	v    []float64
}

func newField(w, h int) *field { return &field{w: w, h: h, v: make([]float64, w*h)} }

// at reads with edge replication.
func (f *field) at(x, y int) float64 {
	return f.v[clamp(y, 0, f.h-1)*f.w+clamp(x, 0, f.w-1)]
}

func (f *field) set(x, y int, v float64) { f.v[y*f.w+x] = v }

var gaussian5 = [5][5]float64{
	{1, 4, 7, 4, 1},
	{4, 16, 26, 16, 4},
	{7, 26, 41, 26, 7},
	{4, 16, 26, 16, 4},
	{1, 4, 7, 4, 1},
}

const gaussian5Sum = 273.0

func edgeMap(ctx context.Context, canvas *image.NRGBA, r image.Rectangle, low, high float64) error {
	w, h := r.Dx(), r.Dy()

	gray := newField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := canvas.NRGBAAt(r.Min.X+x, r.Min.Y+y)
			gray.set(x, y, (0.299*float64(c.R)+0.587*float64(c.G)+0.114*float64(c.B))/255)
		}
	}

	blurred := newField(w, h)
	for y := 0; y < h; y++ {
		if err := errs.Check(ctx); err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += gray.at(x+kx, y+ky) * gaussian5[ky+2][kx+2]
				}
			}
			blurred.set(x, y, sum/gaussian5Sum)
		}
	}

	mag := newField(w, h)
	dir := newField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -blurred.at(x-1, y-1) + blurred.at(x+1, y-1) -
				2*blurred.at(x-1, y) + 2*blurred.at(x+1, y) -
				blurred.at(x-1, y+1) + blurred.at(x+1, y+1)
			gy := -blurred.at(x-1, y-1) - 2*blurred.at(x, y-1) - blurred.at(x+1, y-1) +
				blurred.at(x-1, y+1) + 2*blurred.at(x, y+1) + blurred.at(x+1, y+1)
			mag.set(x, y, math.Hypot(gx, gy))
			dir.set(x, y, math.Atan2(gy, gx))
		}
	}

	thin := newField(w, h)
	for y := 1; y < h-1; y++ {
		if err := errs.Check(ctx); err != nil {
			return err
		}
		for x := 1; x < w-1; x++ {
			m := mag.at(x, y)
			n1, n2 := neighbours(mag, x, y, dir.at(x, y))
			if m >= n1 && m >= n2 {
				thin.set(x, y, m)
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := thin.at(x, y)
			edge := v >= high || (v >= low && strongNeighbour(thin, x, y, high))
			c := color.NRGBA{A: 255}
			if edge {
				c.R, c.G, c.B = 255, 255, 255
			}
			canvas.SetNRGBA(r.Min.X+x, r.Min.Y+y, c)
		}
	}
	return nil
}

// neighbours returns the two magnitudes along the gradient direction.
func neighbours(mag *field, x, y int, angle float64) (float64, float64) {
	const p8 = math.Pi / 8
	switch {
	case (angle >= -p8 && angle < p8) || angle >= 7*p8 || angle < -7*p8:
		return mag.at(x-1, y), mag.at(x+1, y)
	case (angle >= p8 && angle < 3*p8) || (angle >= -7*p8 && angle < -5*p8):
		return mag.at(x+1, y-1), mag.at(x-1, y+1)
	case (angle >= 3*p8 && angle < 5*p8) || (angle >= -5*p8 && angle < -3*p8):
		return mag.at(x, y-1), mag.at(x, y+1)
	default:
		return mag.at(x-1, y-1), mag.at(x+1, y+1)
	}
}

func strongNeighbour(f *field, x, y int, high float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			if f.at(x+kx, y+ky) >= high {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
