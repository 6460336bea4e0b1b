// Photosynthesis viewer
// Analyzes an uploaded image into a statistics pyramid and animates a resynthesized texture.

package main

import (
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"photosynthesis/internal/config"
	"photosynthesis/internal/core"
	"photosynthesis/internal/gui"
	"photosynthesis/internal/io"
)

const (
	AppName    = "Photosynthesis"
	AppID      = "com.photosynthesis.viewer"
	AppVersion = "1.0.0"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file with PHOTOSYNTH_* settings")
	imagePath := flag.String("image", "", "Image to analyze at startup")

	// .env and environment are read before flags so flags take precedence
	cfg, err := config.Load(envFileFromArgs(os.Args[1:], ".env"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := config.NewLogger(cfg.Debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"env_file":   *envFile,
	}).Info("Starting Photosynthesis")

	session, err := core.NewSession(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create synthesis session")
	}
	loader := io.NewImageLoader(logger)

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaPhotoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, session, loader, cfg, logger)

	if *imagePath != "" {
		go func() {
			if err := mainApp.LoadImageFromPath(*imagePath); err != nil {
				logger.WithError(err).WithField("filepath", *imagePath).Error("Failed to load startup image")
			}
		}()
	}

	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

// envFileFromArgs finds -env before flag parsing, since the env file feeds flag defaults
func envFileFromArgs(args []string, fallback string) string {
	for i, arg := range args {
		switch {
		case arg == "-env" || arg == "--env":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(arg) > 5 && arg[:5] == "-env=":
			return arg[5:]
		case len(arg) > 6 && arg[:6] == "--env=":
			return arg[6:]
		}
	}
	return fallback
}
