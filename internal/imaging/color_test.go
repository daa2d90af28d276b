package imaging

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#FF8040", color.NRGBA{255, 128, 64, 255}},
		{"ff8040", color.NRGBA{255, 128, 64, 255}},
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#00000080", color.NRGBA{0, 0, 0, 128}},
		{"  White ", color.NRGBA{255, 255, 255, 255}},
		{"transparent", color.NRGBA{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#gggggg", "#112233zz", "chartreuse-ish"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) should fail", in)
		}
	}
}

func TestFormatColor(t *testing.T) {
	tests := []struct {
		in   color.Color
		want string
	}{
		{color.NRGBA{255, 128, 64, 255}, "#ff8040"},
		{color.NRGBA{0, 0, 0, 128}, "#00000080"},
		{color.Transparent, "#00000000"},
		{color.White, "#ffffff"},
	}

	for _, tt := range tests {
		if got := FormatColor(tt.in); got != tt.want {
			t.Errorf("FormatColor(%v): got %s, want %s", tt.in, got, tt.want)
		}
	}
}
