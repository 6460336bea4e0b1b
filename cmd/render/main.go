// Headless renderer: runs the synthesis loop and writes frames as images
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"photosynthesis/internal/config"
	"photosynthesis/internal/core"
	"photosynthesis/internal/io"
	"photosynthesis/internal/metrics"
	"photosynthesis/internal/raster"
)

func main() {
	cfg, err := config.Load(os.Getenv("PHOTOSYNTH_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	imagePath := flag.String("image", "", "Image to analyze before rendering")
	frames := flag.Int("frames", 240, "Number of simulation steps to run")
	every := flag.Int("every", 1, "Write every n-th frame")
	outDir := flag.String("out", "frames", "Output directory")
	scale := flag.Int("scale", 0, "Upscale written frames to this size (0 keeps the base resolution)")
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := config.NewLogger(cfg.Debug)

	if err := run(cfg, logger, *imagePath, *frames, *every, *outDir, *scale); err != nil {
		logger.WithError(err).Error("Render failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logrus.Logger, imagePath string, frames, every int, outDir string, scale int) error {
	if frames <= 0 || every <= 0 {
		return fmt.Errorf("frames and every must be positive")
	}

	session, err := core.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	loader := io.NewImageLoader(logger)

	if imagePath != "" {
		buf, err := loader.LoadFile(imagePath, cfg.Resolution)
		if err != nil {
			return err
		}
		if _, err := session.HandleImage(buf); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	start := time.Now()
	written := 0
	for k := 0; k < frames; k++ {
		status := session.Advance(session.FixedStep())
		if k%every != 0 {
			continue
		}

		path := filepath.Join(outDir, fmt.Sprintf("frame_%05d.png", k))
		if err := loader.SaveFrame(raster.Upscale(session.Frame(), scale), path); err != nil {
			return err
		}
		written++

		logger.WithFields(logrus.Fields{
			"frame": k,
			"level": status.ActiveLevel,
			"t":     status.T,
		}).Debug("Frame written")
	}

	fields := logrus.Fields{
		"frames":   frames,
		"written":  written,
		"out":      outDir,
		"duration": time.Since(start),
		"avg_step": session.LoopStats().AverageStep(),
	}
	if snap, ok := session.LastSnapshot(); ok {
		if synth, err := session.Reanalyze(); err == nil {
			report := metrics.NewEvaluator().GenerateReport(snap.Pyramid, synth)
			fields["match_score"] = report.OverallScore
			fields["match_level"] = report.MatchLevel
		}
	}
	logger.WithFields(fields).Info("Render complete")

	return nil
}
