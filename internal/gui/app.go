// Main viewer window: drives the synthesis session and displays its frames
package gui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"photosynthesis/internal/config"
	"photosynthesis/internal/core"
	"photosynthesis/internal/io"
	"photosynthesis/internal/metrics"
	"photosynthesis/internal/raster"
)

// metricsInterval is the number of rendered frames between statistics-match reports
const metricsInterval = 60

// Application represents the viewer window
type Application struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger
	cfg    config.Config

	// Core components
	session   *core.Session
	loader    *io.ImageLoader
	evaluator *metrics.Evaluator

	// GUI components
	canvas      *SynthCanvas
	infoPanel   *InfoPanel
	menuHandler *MenuHandler
	statusLabel *widget.Label

	cancel context.CancelFunc
	frames int

	mu       sync.Mutex
	lastPath string
}

func NewApplication(app fyne.App, session *core.Session, loader *io.ImageLoader, cfg config.Config, logger logrus.FieldLogger) *Application {
	window := app.NewWindow("Photosynthesis")
	window.Resize(fyne.NewSize(1100, 720))
	window.CenterOnScreen()

	a := &Application{
		app:       app,
		window:    window,
		logger:    logger.WithField("component", "gui"),
		cfg:       cfg,
		session:   session,
		loader:    loader,
		evaluator: metrics.NewEvaluator(),
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a
}

func (a *Application) initializeGUI() {
	a.canvas = NewSynthCanvas(a.session.Frame(), a.cfg.Accent())
	a.infoPanel = NewInfoPanel(a.evaluator)
	a.menuHandler = NewMenuHandler(a.window, a.logger)
	a.statusLabel = widget.NewLabel("Flat start: open an image to analyze")
}

func (a *Application) setupLayout() {
	right := container.NewVScroll(a.infoPanel.GetContainer())

	main := container.NewHSplit(a.canvas.GetContainer(), right)
	main.SetOffset(0.7)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewBorder(nil, a.statusLabel, nil, nil, main))
}

func (a *Application) setupCallbacks() {
	a.menuHandler.SetCallbacks(
		// onOpen
		func(filepath string) {
			go func() {
				if err := a.LoadImageFromPath(filepath); err != nil {
					fyne.Do(func() { a.showError("Failed to Load Image", err) })
				}
			}()
		},
		// onSave
		func(filepath string) {
			go func() {
				if err := a.SaveFrame(filepath); err != nil {
					fyne.Do(func() { a.showError("Failed to Save Frame", err) })
				}
			}()
		},
	)

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name != fyne.KeyF {
			return
		}
		a.mu.Lock()
		path := a.lastPath
		a.mu.Unlock()
		if path == "" {
			return
		}
		go func() {
			if err := a.LoadImageFromPath(path); err != nil {
				fyne.Do(func() { a.showError("Failed to Reload Image", err) })
			}
		}()
	})
}

// LoadImageFromPath decodes an image and hands it to the session. Safe off the UI goroutine.
func (a *Application) LoadImageFromPath(filepath string) error {
	buf, err := a.loader.LoadFile(filepath, a.session.Res())
	if err != nil {
		return err
	}

	snap, err := a.session.HandleImage(buf)
	if err != nil {
		return fmt.Errorf("failed to analyze image: %w", err)
	}

	a.mu.Lock()
	a.lastPath = filepath
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{
		"filepath":    filepath,
		"analysis_id": snap.ID.String(),
	}).Info("Image loaded successfully")

	fyne.Do(func() {
		a.infoPanel.ShowSnapshot(snap)
		a.updateStatusMessage(fmt.Sprintf("Loaded: %s", filepath))
	})
	return nil
}

// SaveFrame writes the current frame, upscaled to the display size
func (a *Application) SaveFrame(filepath string) error {
	frame := raster.Upscale(a.session.Frame(), 512)
	if err := a.loader.SaveFrame(frame, filepath); err != nil {
		return err
	}
	fyne.Do(func() {
		a.updateStatusMessage(fmt.Sprintf("Saved: %s", filepath))
	})
	return nil
}

func (a *Application) onFrame(status core.Status) {
	frame := a.session.Frame()

	a.frames++
	var report *metrics.MatchReport
	if a.frames%metricsInterval == 0 {
		if snap, ok := a.session.LastSnapshot(); ok {
			if synth, err := a.session.Reanalyze(); err == nil {
				r := a.evaluator.GenerateReport(snap.Pyramid, synth)
				report = &r
			}
		}
	}

	fyne.Do(func() {
		a.canvas.Update(frame, status.T)
		if report != nil {
			a.infoPanel.UpdateReport(*report)
		}
	})
}

func (a *Application) updateStatusMessage(message string) {
	a.statusLabel.SetText(message)
}

// ShowAndRun starts the synthesis loop and blocks until the window closes
func (a *Application) ShowAndRun() {
	a.logger.Info("Showing viewer window")

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		if err := a.session.Run(ctx, a.session.FixedStep(), a.onFrame); err != nil && ctx.Err() == nil {
			a.logger.WithError(err).Error("Synthesis loop stopped")
		}
	}()

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	stats := a.session.LoopStats()
	a.logger.WithFields(logrus.Fields{
		"frames":   stats.Frames,
		"steps":    stats.Steps,
		"clamped":  stats.Clamped,
		"avg_step": stats.AverageStep(),
	}).Info("Stopping synthesis loop")
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
