package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/encoder"
	"github.com/ironsheep/image-fit/internal/imaging"
	"github.com/ironsheep/image-fit/internal/pipeline"
	"github.com/ironsheep/image-fit/internal/resample"
	"github.com/ironsheep/image-fit/internal/surface"
)

func init() {
	resizeFit.register(resizeCmd)
	resizeOut.register(resizeCmd)
	resizeCmd.Flags().StringVarP(&resizeOutput, `out`, `o`, ``, `output file; "-" writes raw bytes to stdout, empty prints a data URL`)
	rootCmd.AddCommand(resizeCmd)
}

var resizeCmd = &cobra.Command{
	Use:   `resize <input>`,
	Short: `fit one image into a box and encode it`,
	Long: `Fit one image into a box and encode it.

The input is a file path or a data: URL. The output format follows --format,
then the extension of --out, then the configured default.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context) error { return resize(ctx, args[0]) })
	},
}

var (
	resizeFit    fitFlags
	resizeOut    outputFlags
	resizeOutput string
)

// outputFlags are the encoder and drawing flags shared by resize and batch.
type outputFlags struct {
	format    string
	quality   float64
	stages    []string
	resampler string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&o.format, `format`, `f`, ``, `png, jpeg, gif, bmp or tiff`)
	fs.Float64VarP(&o.quality, `quality`, `q`, 0, `lossy quality in [0,1]; 0 uses the configured default`)
	fs.StringArrayVar(&o.stages, `stage`, nil, `draw stage, repeatable: grayscale, brightness=<f>, contrast=<f>, sharpen=<f>, blur=<f>, invert, border=<w>:<colour>, edges=<low>:<high>, grid=<px>[:<colour>][:labels]`)
	fs.StringVar(&o.resampler, `resampler`, ``, `scaling backend; one of `+fmt.Sprint(resample.Names()))
}

// options resolves the encoder options. path, when set, supplies the format
// if --format does not.
func (o *outputFlags) options(a *app, path string) (encoder.Options, error) {
	opts := a.cfg.OutputOptions()
	switch {
	case o.format != "":
		opts.Format = encoder.Format(o.format)
	case path != "" && path != "-":
		if f, err := encoder.FormatFromFilename(path); err == nil {
			opts.Format = f
		}
	}
	if o.quality != 0 {
		opts.Quality = o.quality
	}
	return opts, opts.Validate()
}

func (o *outputFlags) pipeline(a *app) (*pipeline.Pipeline, error) {
	name := o.resampler
	if name == "" {
		name = a.cfg.Resampler
	}
	r, err := resample.ByName(name)
	if err != nil {
		return nil, err
	}
	stages, err := pipeline.ParseStages(o.stages)
	if err != nil {
		return nil, err
	}
	pool, err := surface.Shared()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pool,
		pipeline.WithResampler(r),
		pipeline.WithStages(stages...),
		pipeline.WithLogger(a.log.Named("pipeline")),
	), nil
}

func resize(ctx context.Context, input string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	req, err := resizeFit.request()
	if err != nil {
		return err
	}
	opts, err := resizeOut.options(a, resizeOutput)
	if err != nil {
		return err
	}
	p, err := resizeOut.pipeline(a)
	if err != nil {
		return err
	}

	h, err := imaging.NewLoader(1).Load(input)
	if err != nil {
		return err
	}
	if h, err = h.SelectRegion(resizeFit.region); err != nil {
		return err
	}
	a.log.Debug("loaded", "source", input, "width", h.Width(), "height", h.Height(), "format", h.Format)

	art, err := p.Render(ctx, h.Image(), req, opts)
	if err != nil {
		return err
	}

	switch resizeOutput {
	case "":
		fmt.Println(art.DataURL())
	case "-":
		if _, err := os.Stdout.Write(art.Bytes); err != nil {
			return err
		}
	default:
		if err := art.WriteFile(resizeOutput); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s: %dx%d %s, %s\n",
			resizeOutput, art.Width, art.Height, art.Format, humanize.IBytes(uint64(len(art.Bytes))))
	}
	return nil
}
