package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/ironsheep/image-fit/internal/geometry"
)

// Grid overlays lines every spacing pixels across the canvas, blended over
// what is already there. With labels, each crossing gets its "x,y" canvas
// coordinate in a 3x5 pixel font.
func Grid(spacing int, c color.Color, labels bool) Stage {
	return Stage{
		Name:  "grid",
		Phase: PhaseAfterDraw,
		Apply: func(_ context.Context, canvas *image.NRGBA, _ geometry.Plan) error {
			if spacing <= 0 {
				return nil
			}
			b := canvas.Bounds()
			line := image.NewUniform(c)
			for x := spacing; x < b.Dx(); x += spacing {
				draw.Draw(canvas, image.Rect(b.Min.X+x, b.Min.Y, b.Min.X+x+1, b.Max.Y), line, image.Point{}, draw.Over)
			}
			for y := spacing; y < b.Dy(); y += spacing {
				draw.Draw(canvas, image.Rect(b.Min.X, b.Min.Y+y, b.Max.X, b.Min.Y+y+1), line, image.Point{}, draw.Over)
			}

			if labels {
				for y := spacing; y < b.Dy(); y += spacing {
					for x := spacing; x < b.Dx(); x += spacing {
						label := strconv.Itoa(x) + "," + strconv.Itoa(y)
						drawLabel(canvas, b.Min.Add(image.Pt(x+2, y+2)), label)
					}
				}
			}
			return nil
		},
	}
}

var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

var (
	labelFG = image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	labelBG = image.NewUniform(color.NRGBA{A: 180})
)

// drawLabel writes text with its top-left corner at pt on a dark plate.
// Anything past the canvas edge is clipped.
func drawLabel(canvas *image.NRGBA, pt image.Point, text string) {
	const advance = 4
	plate := image.Rect(pt.X-1, pt.Y-1, pt.X+len(text)*advance, pt.Y+7)
	draw.Draw(canvas, plate, labelBG, image.Point{}, draw.Over)

	x := pt.X
	for _, ch := range text {
		if g, ok := glyphs[ch]; ok {
			for row, bits := range g {
				for col, bit := range bits {
					if bit == '1' {
						draw.Draw(canvas, image.Rect(x+col, pt.Y+row, x+col+1, pt.Y+row+1), labelFG, image.Point{}, draw.Src)
					}
				}
			}
		}
		x += advance
	}
}
