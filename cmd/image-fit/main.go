package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-fit/internal/config"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/surface"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          filepath.Base(os.Args[0]),
	Short:        "image-fit resizes images into boxes",
	Long:         "image-fit fits images into a target box with cover, contain, fill, shrink or grow, then encodes them.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var (
	configFlag   string
	debugFlag    bool
	logLevelFlag string
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVarP(&configFlag, `config`, `c`, ``, `TOML config file`)
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, `debug`, `d`, false, `print error stacks`)
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, `log-level`, ``, `trace, debug, info, warn, error or off`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run executes fn with a context cancelled on SIGINT/SIGTERM and exits
// non-zero on error.
func run(fn func(ctx context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := fn(ctx)
	stop()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error: "+err.Error())
	if stack := errs.Stack(err); debugFlag && stack != "" {
		fmt.Fprintln(os.Stderr, "\n"+stack)
	}
	os.Exit(1)
}

// app is the state every command shares. The surface pool is the
// process-wide one from surface.Shared.
type app struct {
	cfg config.Config
	log hclog.Logger
}

func setup() (*app, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	// stdout carries results and MCP traffic
	logger := hclog.New(&hclog.LoggerOptions{
		Name:            "image-fit",
		Output:          os.Stderr,
		Level:           hclog.LevelFromString(cfg.LogLevel),
		IncludeLocation: true,
	}).With("appVersion", Version)

	sc := cfg.SurfaceConfig()
	sc.Logger = logger.Named("surface")
	if sc.SystemPressurePercent > 0 {
		sc.Probe = surface.SystemProbe{}
	}

	surface.Init(sc)
	return &app{cfg: cfg, log: logger}, nil
}

func (a *app) close() {
	defer surface.Shutdown()
	pool, err := surface.Shared()
	if err != nil {
		return
	}
	st := pool.Stats()
	a.log.Debug("pool stats",
		"created", st.TotalCreated, "acquired", st.TotalAcquired, "released", st.TotalReleased,
		"evicted", st.TotalEvicted, "hitRatio", st.HitRatio)
}
