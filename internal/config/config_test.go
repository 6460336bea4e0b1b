package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosynthesis/internal/pyramid"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 256, cfg.Resolution)
	assert.Equal(t, 0.5, cfg.Rate)
	assert.Equal(t, 128.0, cfg.Defaults().Mean)
	assert.Equal(t, 30.0, cfg.Defaults().DeltaStd)
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"PHOTOSYNTH_RESOLUTION":   "64",
		"PHOTOSYNTH_RATE":         "1.5",
		"PHOTOSYNTH_FIXED_STEP":   "10ms",
		"PHOTOSYNTH_NOISE":        "gaussian",
		"PHOTOSYNTH_SEED":         "17",
		"PHOTOSYNTH_DEBUG":        "true",
		"PHOTOSYNTH_ACCENT_COLOR": "#ff0000",
	}))
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Resolution)
	assert.Equal(t, 1.5, cfg.Rate)
	assert.Equal(t, 10*time.Millisecond, cfg.FixedStep)
	assert.Equal(t, "gaussian", cfg.Noise)
	assert.Equal(t, uint64(17), cfg.Seed)
	assert.True(t, cfg.Debug)
	assert.InDelta(t, 1.0, cfg.Accent().R, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_ReportsEveryBadValue(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"PHOTOSYNTH_RESOLUTION": "big",
		"PHOTOSYNTH_RATE":       "fast",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PHOTOSYNTH_RESOLUTION")
	assert.Contains(t, err.Error(), "PHOTOSYNTH_RATE")
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"resolution": func(c *Config) { c.Resolution = 100 },
		"rate":       func(c *Config) { c.Rate = 0 },
		"fixed step": func(c *Config) { c.FixedStep = 0 },
		"frame time": func(c *Config) { c.MaxFrameTime = time.Millisecond },
		"delta std":  func(c *Config) { c.DefaultDeltaStd = -1 },
		"noise":      func(c *Config) { c.Noise = "pink" },
		"accent":     func(c *Config) { c.AccentColor = "blue" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), pyramid.ErrInvalidConfiguration)
		})
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PHOTOSYNTH_DEFAULT_MEAN=90\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PHOTOSYNTH_DEFAULT_MEAN") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.DefaultMean)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Resolution)
}

func TestBindFlags(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-resolution", "32", "-noise", "gaussian", "-debug"}))

	assert.Equal(t, 32, cfg.Resolution)
	assert.Equal(t, "gaussian", cfg.Noise)
	assert.True(t, cfg.Debug)
}
