package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/image-fit/internal/errs"
)

// quadrantImage has red, green, blue and white quadrants: top-left, top-right,
// bottom-left, bottom-right.
func quadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseRegion_Named(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		region string
		want   image.Rectangle
	}{
		{"top-left", image.Rect(0, 0, 50, 50)},
		{"top-right", image.Rect(50, 0, 100, 50)},
		{"bottom-left", image.Rect(0, 50, 50, 100)},
		{"bottom-right", image.Rect(50, 50, 100, 100)},
		{"top-half", image.Rect(0, 0, 100, 50)},
		{"bottom-half", image.Rect(0, 50, 100, 100)},
		{"left-half", image.Rect(0, 0, 50, 100)},
		{"right-half", image.Rect(50, 0, 100, 100)},
		{"center", image.Rect(25, 25, 75, 75)},
		{"  Center ", image.Rect(25, 25, 75, 75)},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := ParseRegion(tt.region, bounds)
			if err != nil {
				t.Fatalf("ParseRegion(%s) failed: %v", tt.region, err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if len(RegionNames) != 9 {
		t.Errorf("RegionNames: got %d names", len(RegionNames))
	}
}

func TestParseRegion_Coordinates(t *testing.T) {
	got, err := ParseRegion("10, 20, 30, 40", image.Rect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("ParseRegion failed: %v", err)
	}
	if got != image.Rect(10, 20, 30, 40) {
		t.Errorf("got %v", got)
	}

	// coordinates are relative to the image origin
	got, err = ParseRegion("0,0,5,5", image.Rect(100, 200, 150, 250))
	if err != nil {
		t.Fatalf("ParseRegion failed: %v", err)
	}
	if got != image.Rect(100, 200, 105, 205) {
		t.Errorf("offset bounds: got %v", got)
	}
}

func TestParseRegion_Invalid(t *testing.T) {
	for _, s := range []string{"invalid", "middle", "", "center-left", "1,2,3", "a,b,c,d"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseRegion(s, image.Rect(0, 0, 10, 10))
			if !errors.Is(err, errs.ErrInvalidResizeOption) {
				t.Errorf("ParseRegion(%q): got %v, want ErrInvalidResizeOption", s, err)
			}
		})
	}
}

func TestHandle_Region(t *testing.T) {
	h := NewHandle(quadrantImage(100, 100))

	tests := []struct {
		region string
		want   color.RGBA
	}{
		{"top-left", color.RGBA{255, 0, 0, 255}},
		{"top-right", color.RGBA{0, 255, 0, 255}},
		{"bottom-left", color.RGBA{0, 0, 255, 255}},
		{"bottom-right", color.RGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			sub, err := h.SelectRegion(tt.region)
			if err != nil {
				t.Fatalf("SelectRegion(%s) failed: %v", tt.region, err)
			}
			if sub.Width() != 50 || sub.Height() != 50 {
				t.Errorf("dimensions: got %dx%d, want 50x50", sub.Width(), sub.Height())
			}
			b := sub.Image().Bounds()
			got := color.RGBAModel.Convert(sub.Image().At(b.Min.X+25, b.Min.Y+25)).(color.RGBA)
			if got != tt.want {
				t.Errorf("colour: got %v, want %v", got, tt.want)
			}
			if sub.Format != h.Format {
				t.Errorf("format not carried: got %q", sub.Format)
			}
		})
	}
}

func TestHandle_SelectRegionEmpty(t *testing.T) {
	h := NewHandle(quadrantImage(10, 10))
	sub, err := h.SelectRegion(" ")
	if err != nil || sub != h {
		t.Errorf("empty spec should return the same handle, got %v %v", sub, err)
	}
}

func TestHandle_RegionOutOfBounds(t *testing.T) {
	h := NewHandle(quadrantImage(100, 100))

	for _, r := range []image.Rectangle{
		image.Rect(-1, 0, 50, 50),
		image.Rect(0, 0, 101, 50),
		image.Rect(50, 50, 50, 60),
	} {
		if _, err := h.Region(r); !errors.Is(err, errs.ErrInvalidResizeOption) {
			t.Errorf("Region(%v): got %v, want ErrInvalidResizeOption", r, err)
		}
	}
}

// noSubImage hides SubImage so Region has to copy.
type noSubImage struct{ image.Image }

func TestHandle_RegionCopiesWithoutSubImage(t *testing.T) {
	h := NewHandle(noSubImage{quadrantImage(100, 100)})

	sub, err := h.Region(image.Rect(50, 50, 100, 100))
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if sub.Image().Bounds() != image.Rect(0, 0, 50, 50) {
		t.Errorf("bounds: got %v", sub.Image().Bounds())
	}
	got := color.RGBAModel.Convert(sub.Image().At(10, 10)).(color.RGBA)
	if got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("colour: got %v, want white", got)
	}
}

func TestResolveRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 40, 20)

	r, err := ResolveRegion("right-half", bounds)
	if err != nil || r != image.Rect(20, 0, 40, 20) {
		t.Errorf("right-half: got %v %v", r, err)
	}

	for _, s := range []string{"0,0,41,20", "5,5,5,10", "zoom"} {
		if _, err := ResolveRegion(s, bounds); !errors.Is(err, errs.ErrInvalidResizeOption) {
			t.Errorf("ResolveRegion(%q): got %v", s, err)
		}
	}
}
