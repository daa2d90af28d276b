package pipeline

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
)

func applyStage(t *testing.T, s Stage, canvas *image.NRGBA, plan geometry.Plan) {
	t.Helper()
	require.NoError(t, s.Apply(context.Background(), canvas, plan))
}

func TestGrayscale(t *testing.T) {
	canvas := solid(4, 4, color.NRGBA{R: 200, G: 50, B: 10, A: 255})
	applyStage(t, Grayscale(), canvas, geometry.Plan{})

	c := canvas.NRGBAAt(1, 1)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
	assert.Equal(t, uint8(255), c.A)
}

func TestBrightness(t *testing.T) {
	canvas := solid(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	applyStage(t, Brightness(0.5), canvas, geometry.Plan{})
	assert.Greater(t, canvas.NRGBAAt(0, 0).R, uint8(100))

	canvas = solid(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	applyStage(t, Brightness(-0.5), canvas, geometry.Plan{})
	assert.Less(t, canvas.NRGBAAt(0, 0).R, uint8(100))
}

func TestInvert(t *testing.T) {
	canvas := solid(2, 2, color.NRGBA{R: 255, G: 0, B: 100, A: 255})
	applyStage(t, Invert(), canvas, geometry.Plan{})
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 155, A: 255}, canvas.NRGBAAt(0, 0))
}

func TestBorder(t *testing.T) {
	canvas := solid(40, 40, white)
	plan := geometry.Plan{Dst: image.Rect(10, 10, 30, 30), Canvas: image.Pt(40, 40)}
	applyStage(t, Border(2, red), canvas, plan)

	assertNear(t, red, canvas.NRGBAAt(10, 20), "left edge of the content")
	assertNear(t, red, canvas.NRGBAAt(29, 20), "right edge of the content")
	assert.Equal(t, white, canvas.NRGBAAt(20, 20), "inside")
	assert.Equal(t, white, canvas.NRGBAAt(5, 5), "outside")
}

func TestSharpenAndBlurKeepSize(t *testing.T) {
	for _, s := range []Stage{Sharpen(1), Blur(2), Contrast(0.3)} {
		t.Run(s.Name, func(t *testing.T) {
			canvas := solid(16, 9, red)
			applyStage(t, s, canvas, geometry.Plan{})
			assert.Equal(t, image.Rect(0, 0, 16, 9), canvas.Bounds())
			assertNear(t, red, canvas.NRGBAAt(8, 4))
		})
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		name string
	}{
		{"grayscale", "grayscale"},
		{"Greyscale", "grayscale"},
		{"brightness=0.2", "brightness"},
		{"contrast", "contrast"},
		{"sharpen=0.5", "sharpen"},
		{"blur=3", "blur"},
		{"invert", "invert"},
		{"border=4:#ff0000", "border"},
		{"border", "border"},
		{"edges", "edges"},
		{"edges=20:90", "edges"},
		{"grid", "grid"},
		{"grid=25:#00ff00:labels", "grid"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseStage(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, s.Name)
			assert.Equal(t, PhaseAfterDraw, s.Phase)
		})
	}

	for _, bad := range []string{"emboss", "brightness=lots", "border=-1", "border=2:#zz",
		"edges=90:20", "edges=10", "edges=0:300", "grid=0", "grid=10:#zz"} {
		_, err := ParseStage(bad)
		assert.ErrorIs(t, err, errs.ErrInvalidResizeOption, bad)
	}
}

func TestParseStages(t *testing.T) {
	stages, err := ParseStages([]string{"grayscale", "", " border=1:white "})
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "border", stages[1].Name)

	_, err = ParseStages([]string{"grayscale", "nope"})
	assert.Error(t, err)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "setup", PhaseSetup.String())
	assert.Equal(t, "after-draw", PhaseAfterDraw.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
