package main

import (
	"context"
	"encoding/json"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/geometry"
	"github.com/ironsheep/image-fit/internal/imaging"
)

func init() {
	geometryFit.register(geometryCmd)
	rootCmd.AddCommand(geometryCmd)
}

var geometryCmd = &cobra.Command{
	Use:   `geometry <source>`,
	Short: `print the fit plan without drawing`,
	Long: `Print the fit plan as JSON without drawing anything.

The source is either <w>x<h> or an image path.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(context.Context) error { return planGeometry(args[0]) })
	},
}

var geometryFit fitFlags

type geometryOutput struct {
	SourceWidth  int           `json:"source_width"`
	SourceHeight int           `json:"source_height"`
	BoxWidth     int           `json:"box_width"`
	BoxHeight    int           `json:"box_height"`
	Plan         geometry.Plan `json:"plan"`
}

func planGeometry(source string) error {
	req, err := geometryFit.request()
	if err != nil {
		return err
	}

	srcW, srcH, err := sourceSize(source)
	if err != nil {
		return err
	}

	boxW, boxH, err := req.Size.Resolve(srcW, srcH)
	if err != nil {
		return err
	}
	plan, err := geometry.PlanRequest(req, srcW, srcH)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(geometryOutput{
		SourceWidth:  srcW,
		SourceHeight: srcH,
		BoxWidth:     boxW,
		BoxHeight:    boxH,
		Plan:         plan,
	})
}

// sourceSize reads "<w>x<h>" or falls back to decoding the file, then
// applies --region.
func sourceSize(source string) (int, int, error) {
	var bounds image.Rectangle
	if s, err := parseSize(source); err == nil && s.Width > 0 && s.Height > 0 {
		bounds = image.Rect(0, 0, s.Width, s.Height)
	} else {
		h, err := imaging.NewLoader(1).Load(source)
		if err != nil {
			return 0, 0, err
		}
		bounds = h.Image().Bounds()
	}

	if geometryFit.region != "" {
		r, err := imaging.ResolveRegion(geometryFit.region, bounds)
		if err != nil {
			return 0, 0, err
		}
		bounds = r
	}
	return bounds.Dx(), bounds.Dy(), nil
}
