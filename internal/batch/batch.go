// Package batch renders many resize jobs with bounded concurrency and a
// fallback policy per failure class.
package batch

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-fit/internal/encoder"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/geometry"
	"github.com/ironsheep/image-fit/internal/pipeline"
)

// DefaultConcurrency is used when Runner.Concurrency is zero.
const DefaultConcurrency = 4

// Job is one resize request.
type Job struct {
	ID      string
	Source  image.Image
	Request geometry.Request
	Output  encoder.Options

	// OutputPath, when set, receives the encoded bytes. If a fallback changes
	// the format, the extension is changed to match.
	OutputPath string
}

// Outcome is the result of one Job, in the same position as the job.
type Outcome struct {
	ID         string
	Artifact   *encoder.Artifact
	OutputPath string
	Attempts   int
	Fallbacks  []string
	Duration   time.Duration
	Err        error
}

// OK reports whether the job produced an artifact.
func (o Outcome) OK() bool { return o.Err == nil }

// Runner renders jobs through a Pipeline.
//
// On failure the Runner retries up to Retries times:
//   - ErrSurfaceAllocationFailed: optimize the pool and halve the target size
//   - ErrEncodingFailed: re-encode once as PNG
//   - ErrInvalidResizeOption, ErrCancelled and anything else: no retry
type Runner struct {
	Pipeline    *pipeline.Pipeline
	Concurrency int
	Retries     int
	Logger      hclog.Logger
}

// Run renders every job and returns one Outcome per job, in order. Jobs are
// independent; a failure never stops the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	log := r.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range jobs {
		g.Go(func() error {
			outcomes[i] = r.runJob(ctx, jobs[i], log)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *Runner) runJob(ctx context.Context, job Job, log hclog.Logger) (out Outcome) {
	start := time.Now()
	out.ID = job.ID
	defer func() { out.Duration = time.Since(start) }()

	log = log.With("job", job.ID)
	req, opts := job.Request, job.Output

	for {
		out.Attempts++
		art, err := r.Pipeline.Render(ctx, job.Source, req, opts)
		if err == nil {
			out.Artifact, out.Err = art, nil
			if job.OutputPath != "" {
				out.OutputPath = outputPath(job.OutputPath, job.Output.Format, art.Format)
				out.Err = art.WriteFile(out.OutputPath)
			}
			log.Debug("job done", "attempts", out.Attempts, "width", art.Width, "height", art.Height)
			return out
		}
		out.Err = err

		if out.Attempts > r.Retries {
			log.Warn("job failed", "attempts", out.Attempts, "error", err)
			return out
		}

		switch {
		case errors.Is(err, errs.ErrSurfaceAllocationFailed):
			smaller, ok := halve(req, job.Source)
			if !ok {
				return out
			}
			evicted := r.Pipeline.Pool().Optimize()
			log.Warn("surface allocation failed, retrying at half size",
				"evicted", evicted, "width", smaller.Size.Width, "height", smaller.Size.Height)
			req = smaller
			out.Fallbacks = append(out.Fallbacks, "half-size")

		case errors.Is(err, errs.ErrEncodingFailed):
			if f, _ := encoder.ParseFormat(string(opts.Format)); f == encoder.PNG {
				return out
			}
			log.Warn("encoding failed, retrying as png", "format", opts.Format, "error", err)
			opts = encoder.Options{Format: encoder.PNG}
			out.Fallbacks = append(out.Fallbacks, "png")

		default:
			if !errors.Is(err, errs.ErrInvalidResizeOption) && !errs.IsCancelled(err) {
				log.Warn("job failed", "error", err)
			}
			return out
		}
	}
}

// halve returns req with the target box halved in both directions.
func halve(req geometry.Request, src image.Image) (geometry.Request, bool) {
	if src == nil {
		return req, false
	}
	b := src.Bounds()
	w, h, err := req.Size.Resolve(b.Dx(), b.Dy())
	if err != nil || (w <= 1 && h <= 1) {
		return req, false
	}
	req.Size = geometry.Size{Width: max(1, w/2), Height: max(1, h/2)}
	return req, true
}

func outputPath(path string, requested, actual encoder.Format) string {
	if want, err := encoder.ParseFormat(string(requested)); err == nil && want == actual {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + actual.Extension()
}

// Summary counts successes and failures.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Fallbacks int `json:"fallbacks"`
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
		if len(o.Fallbacks) > 0 {
			s.Fallbacks++
		}
	}
	return s
}
