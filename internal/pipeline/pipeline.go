// Package pipeline draws a source image onto a pooled surface according to a
// resize request, runs the configured stages, and optionally encodes the
// result.
package pipeline

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/image-fit/internal/encoder"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
	"github.com/ironsheep/image-fit/internal/resample"
	"github.com/ironsheep/image-fit/internal/surface"
)

// Pipeline turns requests into drawn surfaces. It holds no per-call state
// and is safe for concurrent use.
type Pipeline struct {
	pool      *surface.Pool
	resampler resample.Resampler
	stages    []Stage
	log       hclog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithResampler selects the scaling backend. The default is resample.Default().
func WithResampler(r resample.Resampler) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.resampler = r
		}
	}
}

// WithStages appends stages. They run in the order given, grouped by phase.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) { p.stages = append(p.stages, stages...) }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a pipeline drawing onto surfaces from pool.
func New(pool *surface.Pool, opts ...Option) *Pipeline {
	p := &Pipeline{
		pool:      pool,
		resampler: resample.Default(),
		log:       hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pool returns the surface pool the pipeline draws onto.
func (p *Pipeline) Pool() *surface.Pool { return p.pool }

// Result is a drawn surface. The surface stays owned by the pool and must be
// released exactly once.
type Result struct {
	Surface *surface.Surface
	Width   int
	Height  int
	Plan    geometry.Plan
}

// Image returns the drawn canvas.
func (r *Result) Image() *image.NRGBA { return r.Surface.Image() }

// Release hands the surface back to the pool.
func (r *Result) Release() error { return r.Surface.Release() }

// Draw plans req against src, acquires a surface of the canvas size, paints
// the background, and draws the planned source region into the destination
// rectangle. Stages run at their phases. The context is checked between
// steps; on cancellation or any failure after acquisition the surface is
// released before returning.
func (p *Pipeline) Draw(ctx context.Context, src image.Image, req geometry.Request) (*Result, error) {
	if err := errs.Check(ctx); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errs.Invalidf("no source image")
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, errs.Invalidf("source image is empty")
	}

	plan, err := geometry.PlanRequest(req, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	surf, err := p.pool.Acquire(plan.Canvas.X, plan.Canvas.Y)
	if err != nil {
		return nil, err
	}

	if err := p.render(ctx, surf.Image(), src, req, plan); err != nil {
		if relErr := surf.Release(); relErr != nil {
			p.log.Warn("release after failed draw", "error", relErr)
		}
		return nil, err
	}

	p.log.Debug("drawn",
		"policy", plan.Policy,
		"src", plan.Src,
		"dst", plan.Dst,
		"canvas_w", plan.Canvas.X,
		"canvas_h", plan.Canvas.Y,
		"resampler", p.resampler.Name(),
		"elapsed", time.Since(start))

	return &Result{
		Surface: surf,
		Width:   plan.Canvas.X,
		Height:  plan.Canvas.Y,
		Plan:    plan,
	}, nil
}

func (p *Pipeline) render(ctx context.Context, canvas *image.NRGBA, src image.Image, req geometry.Request, plan geometry.Plan) error {
	if err := p.runStages(ctx, PhaseSetup, canvas, plan); err != nil {
		return err
	}

	if req.Background != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(req.Background), image.Point{}, draw.Src)
	}

	if err := p.runStages(ctx, PhaseBeforeDraw, canvas, plan); err != nil {
		return err
	}
	if err := errs.Check(ctx); err != nil {
		return err
	}

	sr := plan.Src.Add(src.Bounds().Min)
	if err := p.resampler.Draw(canvas, plan.Dst, src, sr); err != nil {
		p.log.Warn("resample failed", "resampler", p.resampler.Name(), "error", err)
		return err
	}

	if err := errs.Check(ctx); err != nil {
		return err
	}
	return p.runStages(ctx, PhaseAfterDraw, canvas, plan)
}

func (p *Pipeline) runStages(ctx context.Context, phase Phase, canvas *image.NRGBA, plan geometry.Plan) error {
	for _, s := range p.stages {
		if s.Phase != phase {
			continue
		}
		if err := errs.Check(ctx); err != nil {
			return err
		}
		if err := s.Apply(ctx, canvas, plan); err != nil {
			if errors.Is(err, errs.ErrCancelled) {
				return err
			}
			if errs.IsCancelled(err) {
				return errs.Cancelled(err)
			}
			p.log.Debug("stage failed", "stage", s.Name, "phase", phase, "error", err)
			return errs.Wrap(err)
		}
	}
	return errs.Check(ctx)
}

// Render draws, encodes and releases. The surface is released on every path.
func (p *Pipeline) Render(ctx context.Context, src image.Image, req geometry.Request, opts encoder.Options) (*encoder.Artifact, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res, err := p.Draw(ctx, src, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := res.Release(); relErr != nil {
			p.log.Warn("release after render", "error", relErr)
		}
	}()

	return encoder.Encode(res.Image(), opts)
}
