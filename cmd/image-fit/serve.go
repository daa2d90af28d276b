package main

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/imaging"
	"github.com/ironsheep/image-fit/internal/server"
	"github.com/ironsheep/image-fit/internal/surface"
)

func init() {
	serveCmd.Flags().IntVar(&serveCacheSize, `cache-size`, imaging.DefaultCacheSize, `decoded images kept in memory`)
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   `serve`,
	Short: `run the MCP server on stdin/stdout`,
	Long: `Run the MCP server on stdin/stdout.

Configure it in your MCP client as a stdio server. Logs go to stderr.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(serve)
	},
}

var serveCacheSize int

func serve(ctx context.Context) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	pool, err := surface.Shared()
	if err != nil {
		return err
	}
	janitor, err := surface.NewJanitor(pool, a.cfg.Pool.JanitorSchedule, a.log.Named("janitor"))
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	ceiling, _ := a.cfg.MemoryCeilingBytes()
	a.log.Info("MCP server starting",
		"buildTime", BuildTime, "commit", GitCommit,
		"resampler", a.cfg.Resampler, "memoryCeiling", humanize.IBytes(uint64(ceiling)),
		"janitor", a.cfg.Pool.JanitorSchedule)

	srv := server.New(server.Config{
		Loader:    imaging.NewLoader(serveCacheSize),
		Resampler: a.cfg.Resampler,
		Output:    a.cfg.OutputOptions(),
		Logger:    a.log.Named("server"),
		Version:   Version,
	})
	err = srv.Run(ctx)
	if ctx.Err() != nil {
		a.log.Info("signal received, stopping")
		return nil
	}
	return err
}
