// Application configuration: defaults, .env and environment overrides, flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"

	"photosynthesis/internal/pyramid"
	"photosynthesis/internal/synthesis"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "PHOTOSYNTH_"

// Config holds every tunable of the analyzer, the engine and the loop driving it
type Config struct {
	Resolution      int
	Rate            float64
	FixedStep       time.Duration
	MaxFrameTime    time.Duration
	DefaultMean     float64
	DefaultDeltaStd float64
	Noise           string
	Seed            uint64
	AccentColor     string
	Debug           bool
}

// Default returns the built-in configuration
func Default() Config {
	start := pyramid.DefaultStart()
	return Config{
		Resolution:      256,
		Rate:            synthesis.DefaultRate,
		FixedStep:       time.Second / 60,
		MaxFrameTime:    100 * time.Millisecond,
		DefaultMean:     start.Mean,
		DefaultDeltaStd: start.DeltaStd,
		Noise:           synthesis.NoiseUniform,
		Seed:            uint64(time.Now().UnixNano()),
		AccentColor:     "#0099ff",
	}
}

// Load reads envFile (ignored when missing) and applies PHOTOSYNTH_* overrides to the defaults
func Load(envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	get := func(key string) (string, bool) {
		return lookup(EnvPrefix + key)
	}

	if v, ok := get("RESOLUTION"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("RESOLUTION", err))
		c.Resolution = n
	}
	if v, ok := get("RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("RATE", err))
		c.Rate = f
	}
	if v, ok := get("FIXED_STEP"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrapEnv("FIXED_STEP", err))
		c.FixedStep = d
	}
	if v, ok := get("MAX_FRAME_TIME"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrapEnv("MAX_FRAME_TIME", err))
		c.MaxFrameTime = d
	}
	if v, ok := get("DEFAULT_MEAN"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("DEFAULT_MEAN", err))
		c.DefaultMean = f
	}
	if v, ok := get("DEFAULT_DELTA_STD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("DEFAULT_DELTA_STD", err))
		c.DefaultDeltaStd = f
	}
	if v, ok := get("NOISE"); ok {
		c.Noise = v
	}
	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		errs = append(errs, wrapEnv("SEED", err))
		c.Seed = n
	}
	if v, ok := get("ACCENT_COLOR"); ok {
		c.AccentColor = v
	}
	if v, ok := get("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnv("DEBUG", err))
		c.Debug = b
	}

	return errors.Join(errs...)
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
}

// BindFlags registers command-line overrides for cfg on fs
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Resolution, "resolution", c.Resolution, "Base resolution (power of two)")
	fs.Float64Var(&c.Rate, "rate", c.Rate, "Cursor rate; one coarse-fine-coarse cycle takes 2/rate seconds")
	fs.DurationVar(&c.FixedStep, "fixed-step", c.FixedStep, "Fixed simulation timestep")
	fs.DurationVar(&c.MaxFrameTime, "max-frame-time", c.MaxFrameTime, "Largest elapsed time accepted per frame")
	fs.Float64Var(&c.DefaultMean, "default-mean", c.DefaultMean, "Flat-start color mean")
	fs.Float64Var(&c.DefaultDeltaStd, "default-delta-std", c.DefaultDeltaStd, "Flat-start delta standard deviation")
	fs.StringVar(&c.Noise, "noise", c.Noise, "Noise mode: uniform or gaussian")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Noise seed")
	fs.StringVar(&c.AccentColor, "accent", c.AccentColor, "Level-of-detail bar color (hex)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug mode with verbose logging")
}

// Validate checks the configuration for values the engine cannot run with
func (c Config) Validate() error {
	if !pyramid.IsPowerOfTwo(c.Resolution) {
		return fmt.Errorf("%w: resolution %d is not a power of two", pyramid.ErrInvalidConfiguration, c.Resolution)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive, got %v", pyramid.ErrInvalidConfiguration, c.Rate)
	}
	if c.FixedStep <= 0 {
		return fmt.Errorf("%w: fixed step must be positive, got %v", pyramid.ErrInvalidConfiguration, c.FixedStep)
	}
	if c.MaxFrameTime < c.FixedStep {
		return fmt.Errorf("%w: max frame time %v is shorter than the fixed step %v",
			pyramid.ErrInvalidConfiguration, c.MaxFrameTime, c.FixedStep)
	}
	if c.DefaultDeltaStd < 0 {
		return fmt.Errorf("%w: default delta std must not be negative", pyramid.ErrInvalidConfiguration)
	}
	if c.Noise != synthesis.NoiseUniform && c.Noise != synthesis.NoiseGaussian {
		return fmt.Errorf("%w: unknown noise mode %q", pyramid.ErrInvalidConfiguration, c.Noise)
	}
	if _, err := colorful.Hex(c.AccentColor); err != nil {
		return fmt.Errorf("%w: accent color %q: %v", pyramid.ErrInvalidConfiguration, c.AccentColor, err)
	}
	return nil
}

// Defaults returns the flat-start statistics
func (c Config) Defaults() pyramid.Defaults {
	return pyramid.Defaults{Mean: c.DefaultMean, DeltaStd: c.DefaultDeltaStd}
}

// Accent returns the parsed accent color, falling back to the default blue
func (c Config) Accent() colorful.Color {
	col, err := colorful.Hex(c.AccentColor)
	if err != nil {
		col, _ = colorful.Hex(Default().AccentColor)
	}
	return col
}
