package main

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want geometry.Size
	}{
		{"300x200", geometry.Size{Width: 300, Height: 200}},
		{"300X200", geometry.Size{Width: 300, Height: 200}},
		{"300", geometry.Size{Width: 300}},
		{"300x", geometry.Size{Width: 300}},
		{"x200", geometry.Size{Height: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "x", "axb", "300xb"} {
		_, err := parseSize(bad)
		assert.ErrorIs(t, err, errs.ErrInvalidResizeOption, bad)
	}
}

func TestParseScale(t *testing.T) {
	got, err := parseScale("0.5")
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{ScaleX: 0.5}, got)

	got, err = parseScale("2x0.5")
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{ScaleX: 2, ScaleY: 0.5}, got)

	_, err = parseScale("big")
	assert.ErrorIs(t, err, errs.ErrInvalidResizeOption)
}

func TestParsePadding(t *testing.T) {
	tests := []struct {
		in   string
		want geometry.Padding
	}{
		{"", geometry.Padding{}},
		{"8", geometry.Uniform(8)},
		{"4, 8", geometry.Padding{Top: 4, Right: 8, Bottom: 4, Left: 8}},
		{"1,2,3,4", geometry.Padding{Top: 1, Right: 2, Bottom: 3, Left: 4}},
	}
	for _, tt := range tests {
		got, err := parsePadding(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"1,2,3", "-1", "a"} {
		_, err := parsePadding(bad)
		assert.ErrorIs(t, err, errs.ErrInvalidResizeOption, bad)
	}
}

func TestFitFlags_Request(t *testing.T) {
	f := fitFlags{policy: "cover", size: "300x200", padding: "10", background: "#ff0000", trim: true}
	req, err := f.request()
	require.NoError(t, err)

	assert.Equal(t, geometry.Cover, req.Policy)
	assert.Equal(t, geometry.Size{Width: 300, Height: 200}, req.Size)
	assert.Equal(t, geometry.Uniform(10), req.Padding)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, req.Background)
	assert.True(t, req.Trim)

	f = fitFlags{policy: "contain", scale: "0.25"}
	req, err = f.request()
	require.NoError(t, err)
	assert.Equal(t, 0.25, req.Size.ScaleX)

	f = fitFlags{policy: "contain", size: "10x10", scale: "3"}
	req, err = f.request()
	require.NoError(t, err)
	assert.Zero(t, req.Size.ScaleX, "size wins over scale")

	for _, bad := range []fitFlags{
		{policy: "zoom", size: "10"},
		{policy: "fill"},
		{policy: "fill", size: "10", background: "nope"},
	} {
		_, err := bad.request()
		assert.ErrorIs(t, err, errs.ErrInvalidResizeOption)
	}
}

func TestBatchOutputPath(t *testing.T) {
	batchOutDir, batchSuffix = "out", "-thumb"
	t.Cleanup(func() { batchOutDir, batchSuffix = ".", "-fit" })

	assert.Equal(t, filepath.Join("out", "cat-thumb.jpg"), batchOutputPath("/photos/cat.png", ".jpg"))
	assert.Equal(t, filepath.Join("out", "image-thumb.png"), batchOutputPath("data:image/png;base64,AAAA", ".png"))
}

func TestSourceSize(t *testing.T) {
	t.Cleanup(func() { geometryFit.region = "" })

	w, h, err := sourceSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, []int{1920, 1080}, []int{w, h})

	geometryFit.region = "center"
	w, h, err = sourceSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, []int{960, 540}, []int{w, h})

	geometryFit.region = "0,0,2000,10"
	_, _, err = sourceSize("1920x1080")
	assert.ErrorIs(t, err, errs.ErrInvalidResizeOption)

	geometryFit.region = ""
	_, _, err = sourceSize(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
