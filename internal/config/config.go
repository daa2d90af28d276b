// Package config loads image-fit settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the TOML file, a .env file in
// the working directory, then IMAGE_FIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/ironsheep/image-fit/internal/encoder"
	"github.com/ironsheep/image-fit/internal/errs"
	"github.com/ironsheep/image-fit/internal/resample"
	"github.com/ironsheep/image-fit/internal/surface"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IMAGE_FIT_"

// Config is the complete configuration.
type Config struct {
	LogLevel  string `toml:"log_level"`
	Resampler string `toml:"resampler"`

	Output Output `toml:"output"`
	Pool   Pool   `toml:"pool"`
	Batch  Batch  `toml:"batch"`
}

// Output holds encoder defaults.
type Output struct {
	Format  string  `toml:"format"`
	Quality float64 `toml:"quality"`
}

// Pool holds surface pool settings.
type Pool struct {
	// MaxPoolSize caps the surfaces kept; a negative value keeps none.
	MaxPoolSize int `toml:"max_pool_size"`

	// MemoryCeiling accepts sizes like "256MiB" or "1GB".
	MemoryCeiling string `toml:"memory_ceiling"`

	BucketSize            int     `toml:"bucket_size"`
	MaxSurfacePixels      int64   `toml:"max_surface_pixels"`
	PressureThreshold     float64 `toml:"pressure_threshold"`
	SystemPressurePercent float64 `toml:"system_pressure_percent"`
	JanitorSchedule       string  `toml:"janitor_schedule"`
}

// Batch holds batch runner settings.
type Batch struct {
	Concurrency int `toml:"concurrency"`
	Retries     int `toml:"retries"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Resampler: resample.DefaultName,
		Output: Output{
			Format:  string(encoder.PNG),
			Quality: encoder.DefaultQuality,
		},
		Pool: Pool{
			MaxPoolSize:           surface.DefaultMaxPoolSize,
			MemoryCeiling:         "256MiB",
			BucketSize:            surface.DefaultBucketSize,
			MaxSurfacePixels:      surface.DefaultMaxSurfacePixels,
			PressureThreshold:     surface.DefaultPressureThreshold,
			SystemPressurePercent: 90,
			JanitorSchedule:       surface.DefaultJanitorSchedule,
		},
		Batch: Batch{
			Concurrency: 4,
			Retries:     2,
		},
	}
}

// Load builds the configuration. An empty path skips the TOML file. A
// missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var firstErr error
	fail := func(key string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
	}
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				fail(key, err)
				return
			}
			*dst = n
		}
	}
	integer64 := func(key string, dst *int64) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				fail(key, err)
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				fail(key, err)
				return
			}
			*dst = f
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("RESAMPLER", &c.Resampler)
	str("OUTPUT_FORMAT", &c.Output.Format)
	float("OUTPUT_QUALITY", &c.Output.Quality)
	integer("POOL_MAX_SIZE", &c.Pool.MaxPoolSize)
	str("POOL_MEMORY_CEILING", &c.Pool.MemoryCeiling)
	integer("POOL_BUCKET_SIZE", &c.Pool.BucketSize)
	integer64("POOL_MAX_SURFACE_PIXELS", &c.Pool.MaxSurfacePixels)
	float("POOL_PRESSURE_THRESHOLD", &c.Pool.PressureThreshold)
	float("POOL_SYSTEM_PRESSURE_PERCENT", &c.Pool.SystemPressurePercent)
	str("JANITOR_SCHEDULE", &c.Pool.JanitorSchedule)
	integer("BATCH_CONCURRENCY", &c.Batch.Concurrency)
	integer("BATCH_RETRIES", &c.Batch.Retries)

	return firstErr
}

// Validate rejects values no component could use.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, a ...any) { problems = append(problems, fmt.Sprintf(format, a...)) }

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		add("log_level %q is not one of trace, debug, info, warn, error, off", c.LogLevel)
	}
	if _, err := resample.ByName(c.Resampler); err != nil {
		add("resampler %q is unknown", c.Resampler)
	}
	if err := c.OutputOptions().Validate(); err != nil {
		add("output: %v", err)
	}
	if _, err := c.MemoryCeilingBytes(); err != nil {
		add("pool.memory_ceiling: %v", err)
	}
	if c.Pool.BucketSize < 0 {
		add("pool.bucket_size must not be negative")
	}
	if c.Pool.MaxSurfacePixels < 0 {
		add("pool.max_surface_pixels must not be negative")
	}
	if c.Pool.PressureThreshold < 0 || c.Pool.PressureThreshold > 1 {
		add("pool.pressure_threshold must be within [0,1]")
	}
	if c.Pool.SystemPressurePercent < 0 || c.Pool.SystemPressurePercent > 100 {
		add("pool.system_pressure_percent must be within [0,100]")
	}
	if c.Batch.Concurrency < 0 {
		add("batch.concurrency must not be negative")
	}
	if c.Batch.Retries < 0 {
		add("batch.retries must not be negative")
	}

	if len(problems) > 0 {
		return errs.Invalidf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MemoryCeilingBytes parses Pool.MemoryCeiling. An empty value means zero,
// which the pool replaces with its default.
func (c Config) MemoryCeilingBytes() (int64, error) {
	if strings.TrimSpace(c.Pool.MemoryCeiling) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Pool.MemoryCeiling)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// OutputOptions converts the output section for the encoder.
func (c Config) OutputOptions() encoder.Options {
	return encoder.Options{Format: encoder.Format(c.Output.Format), Quality: c.Output.Quality}
}

// SurfaceConfig converts the pool section for the surface package. The probe
// and logger are left to the caller.
func (c Config) SurfaceConfig() surface.Config {
	ceiling, _ := c.MemoryCeilingBytes()
	return surface.Config{
		MaxPoolSize:           c.Pool.MaxPoolSize,
		MemoryCeiling:         ceiling,
		BucketSize:            c.Pool.BucketSize,
		MaxSurfacePixels:      c.Pool.MaxSurfacePixels,
		PressureThreshold:     c.Pool.PressureThreshold,
		SystemPressurePercent: c.Pool.SystemPressurePercent,
	}
}
