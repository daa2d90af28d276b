package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/batch"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/imaging"
)

func init() {
	batchFit.register(batchCmd)
	batchOut.register(batchCmd)
	fs := batchCmd.Flags()
	fs.StringVarP(&batchOutDir, `out-dir`, `o`, `.`, `directory for the outputs`)
	fs.StringVar(&batchSuffix, `suffix`, `-fit`, `appended to each output file name`)
	fs.IntVar(&batchConcurrency, `concurrency`, 0, `jobs in flight; 0 uses the configured value`)
	fs.IntVar(&batchRetries, `retries`, -1, `fallback attempts per job; negative uses the configured value`)
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   `batch <input>...`,
	Short: `fit many images with bounded concurrency`,
	Long: `Fit many images into the same box.

A job whose surface cannot be allocated is retried at half size; a job whose
format cannot be encoded is retried as PNG. Other failures are reported and the
remaining jobs continue.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context) error { return runBatch(ctx, args) })
	},
}

var (
	batchFit         fitFlags
	batchOut         outputFlags
	batchOutDir      string
	batchSuffix      string
	batchConcurrency int
	batchRetries     int
)

func runBatch(ctx context.Context, inputs []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	req, err := batchFit.request()
	if err != nil {
		return err
	}
	opts, err := batchOut.options(a, "")
	if err != nil {
		return err
	}
	p, err := batchOut.pipeline(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
		return errs.Wrap(err)
	}

	runner := &batch.Runner{
		Pipeline:    p,
		Concurrency: a.cfg.Batch.Concurrency,
		Retries:     a.cfg.Batch.Retries,
		Logger:      a.log.Named("batch"),
	}
	if batchConcurrency > 0 {
		runner.Concurrency = batchConcurrency
	}
	if batchRetries >= 0 {
		runner.Retries = batchRetries
	}

	loader := imaging.NewLoader(len(inputs))
	var (
		jobs       []batch.Job
		loadFailed int
	)
	for _, in := range inputs {
		h, err := loader.Load(in)
		if err == nil {
			h, err = h.SelectRegion(batchFit.region)
		}
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", in, err)
			loadFailed++
			continue
		}
		jobs = append(jobs, batch.Job{
			ID:         in,
			Source:     h.Image(),
			Request:    req,
			Output:     opts,
			OutputPath: batchOutputPath(in, opts.Format.Extension()),
		})
	}

	outcomes := runner.Run(ctx, jobs)
	for _, o := range outcomes {
		if !o.OK() {
			fmt.Printf("FAIL %s: %v\n", o.ID, o.Err)
			continue
		}
		line := fmt.Sprintf("ok   %s -> %s %dx%d %s in %s",
			o.ID, o.OutputPath, o.Artifact.Width, o.Artifact.Height,
			humanize.IBytes(uint64(len(o.Artifact.Bytes))), o.Duration.Round(time.Millisecond))
		if len(o.Fallbacks) > 0 {
			line += " (fallback " + strings.Join(o.Fallbacks, ", ") + ")"
		}
		fmt.Println(line)
	}

	sum := batch.Summarize(outcomes)
	sum.Failed += loadFailed
	a.log.Info("batch done", "succeeded", sum.Succeeded, "failed", sum.Failed, "fallbacks", sum.Fallbacks)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", sum.Failed, len(inputs))
	}
	return nil
}

func batchOutputPath(input, ext string) string {
	base := filepath.Base(input)
	if strings.HasPrefix(input, "data:") {
		base = "image"
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(batchOutDir, name+batchSuffix+ext)
}
