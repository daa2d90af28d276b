package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
	imgload "github.com/ironsheep/image-fit/internal/imaging"
)

// Phase is the point in a draw at which a stage runs.
type Phase int

const (
	// PhaseSetup runs on the cleared surface, before the background.
	PhaseSetup Phase = iota
	// PhaseBeforeDraw runs after the background, before the source is drawn.
	PhaseBeforeDraw
	// PhaseAfterDraw runs on the finished canvas.
	PhaseAfterDraw
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseBeforeDraw:
		return "before-draw"
	case PhaseAfterDraw:
		return "after-draw"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Stage is one step applied to the canvas during a draw.
type Stage struct {
	Name  string
	Phase Phase
	Apply func(ctx context.Context, canvas *image.NRGBA, plan geometry.Plan) error
}

// replace copies out over the whole canvas.
func replace(canvas *image.NRGBA, out image.Image) {
	draw.Draw(canvas, canvas.Bounds(), out, out.Bounds().Min, draw.Src)
}

// Grayscale desaturates the canvas, keeping alpha.
func Grayscale() Stage {
	return Stage{
		Name:  "grayscale",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, imaging.Grayscale(canvas))
			return nil
		},
	}
}

// Brightness shifts brightness by change in [-1,1].
func Brightness(change float64) Stage {
	return Stage{
		Name:  "brightness",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, adjust.Brightness(canvas, change))
			return nil
		},
	}
}

// Contrast changes contrast by change in [-1,1].
func Contrast(change float64) Stage {
	return Stage{
		Name:  "contrast",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, adjust.Contrast(canvas, change))
			return nil
		},
	}
}

// Sharpen applies an unsharp mask with the given sigma.
func Sharpen(sigma float64) Stage {
	return Stage{
		Name:  "sharpen",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, imaging.Sharpen(canvas, sigma))
			return nil
		},
	}
}

// Blur applies a gaussian blur with the given radius.
func Blur(radius float64) Stage {
	return Stage{
		Name:  "blur",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, blur.Gaussian(canvas, radius))
			return nil
		},
	}
}

// Invert inverts the colours.
func Invert() Stage {
	return Stage{
		Name:  "invert",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			replace(canvas, effect.Invert(canvas))
			return nil
		},
	}
}

// Border strokes a frame of the given width just inside the drawn content.
func Border(width float64, c color.Color) Stage {
	return Stage{
		Name:  "border",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, plan geometry.Plan) error {
			if width <= 0 {
				return nil
			}
			r := plan.Dst
			dc := gg.NewContextForImage(canvas)
			dc.SetColor(c)
			dc.SetLineWidth(width)
			dc.DrawRectangle(
				float64(r.Min.X)+width/2,
				float64(r.Min.Y)+width/2,
				float64(r.Dx())-width,
				float64(r.Dy())-width)
			dc.Stroke()
			replace(canvas, dc.Image())
			return nil
		},
	}
}

// ParseStage builds a built-in stage from "name" or "name=arg". Border takes
// "border=width:#colour", edges "edges=low:high" and grid
// "grid=spacing[:#colour][:labels]".
func ParseStage(s string) (Stage, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.ToLower(name)

	num := func(def float64) (float64, error) {
		if !hasArg || arg == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, errs.Invalidf("stage %s: bad argument %q", name, arg)
		}
		return v, nil
	}

	switch name {
	case "grayscale", "greyscale":
		return Grayscale(), nil
	case "invert":
		return Invert(), nil
	case "brightness":
		v, err := num(0.1)
		if err != nil {
			return Stage{}, err
		}
		return Brightness(v), nil
	case "contrast":
		v, err := num(0.1)
		if err != nil {
			return Stage{}, err
		}
		return Contrast(v), nil
	case "sharpen":
		v, err := num(1)
		if err != nil {
			return Stage{}, err
		}
		return Sharpen(v), nil
	case "blur":
		v, err := num(1)
		if err != nil {
			return Stage{}, err
		}
		return Blur(v), nil
	case "border":
		width, colour := "2", "#000000"
		if hasArg {
			w, c, ok := strings.Cut(arg, ":")
			width = w
			if ok {
				colour = c
			}
		}
		wv, err := strconv.ParseFloat(width, 64)
		if err != nil || wv < 0 {
			return Stage{}, errs.Invalidf("stage border: bad width %q", width)
		}
		c, err := imgload.ParseColor(colour)
		if err != nil {
			return Stage{}, errs.Invalidf("stage border: %v", err)
		}
		return Border(wv, c), nil
	case "edges":
		low, high := 50, 150
		if hasArg {
			l, h, ok := strings.Cut(arg, ":")
			lv, err1 := strconv.Atoi(l)
			hv, err2 := strconv.Atoi(h)
			if !ok || err1 != nil || err2 != nil || lv < 0 || hv > 255 || lv > hv {
				return Stage{}, errs.Invalidf("stage edges: want <low>:<high> in [0,255], got %q", arg)
			}
			low, high = lv, hv
		}
		return Edges(low, high), nil
	case "grid":
		spacing, colour, labels := 50, "#ff000080", false
		if hasArg {
			parts := strings.Split(arg, ":")
			v, err := strconv.Atoi(parts[0])
			if err != nil || v <= 0 {
				return Stage{}, errs.Invalidf("stage grid: bad spacing %q", parts[0])
			}
			spacing = v
			for _, p := range parts[1:] {
				if p == "labels" {
					labels = true
				} else {
					colour = p
				}
			}
		}
		c, err := imgload.ParseColor(colour)
		if err != nil {
			return Stage{}, errs.Invalidf("stage grid: %v", err)
		}
		return Grid(spacing, c, labels), nil
	}
	return Stage{}, errs.Invalidf("unknown stage %q", name)
}

// ParseStages parses each spec with ParseStage.
func ParseStages(specs []string) ([]Stage, error) {
	stages := make([]Stage, 0, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		st, err := ParseStage(s)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}
