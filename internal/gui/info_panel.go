// internal/gui/info_panel.go
// Analysis and statistics-match panel
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"photosynthesis/internal/core"
	"photosynthesis/internal/metrics"
)

// InfoPanel shows the last analysis and how well the synthesized frame matches it
type InfoPanel struct {
	evaluator *metrics.Evaluator

	container *fyne.Container

	analysisCard    *widget.Card
	analysisContent *fyne.Container

	metricsCard    *widget.Card
	metricsContent *fyne.Container
	scoreLabel     *widget.Label
}

func NewInfoPanel(evaluator *metrics.Evaluator) *InfoPanel {
	panel := &InfoPanel{evaluator: evaluator}
	panel.initializeUI()
	return panel
}

func (ip *InfoPanel) initializeUI() {
	ip.analysisContent = container.NewVBox(
		widget.NewLabel("Open an image to analyze its statistics."),
	)
	ip.analysisCard = widget.NewCard("Analysis", "", ip.analysisContent)

	ip.scoreLabel = widget.NewLabel("")
	ip.metricsContent = container.NewVBox(
		widget.NewLabel("Statistics match appears once an image is loaded."),
	)
	ip.metricsCard = widget.NewCard("Statistics Match", "", container.NewVBox(ip.scoreLabel, ip.metricsContent))

	ip.container = container.NewVBox(ip.analysisCard, ip.metricsCard)
}

func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}

// ShowSnapshot lists the per-level detail spread of an accepted analysis
func (ip *InfoPanel) ShowSnapshot(snap core.Snapshot) {
	ip.analysisContent.RemoveAll()

	base := snap.Pyramid.Levels[0]
	ip.analysisContent.Add(widget.NewLabel(fmt.Sprintf("ID: %s", snap.ID.String()[:8])))
	ip.analysisContent.Add(widget.NewLabel(fmt.Sprintf("Mean: %.0f %.0f %.0f",
		base.Color.Mean[0], base.Color.Mean[1], base.Color.Mean[2])))

	for _, level := range snap.Pyramid.Levels[1:] {
		ip.analysisContent.Add(widget.NewLabel(fmt.Sprintf("%4dpx  delta std %.1f %.1f %.1f",
			level.Res, level.Delta.Std[0], level.Delta.Std[1], level.Delta.Std[2])))
	}
	ip.analysisContent.Refresh()
}

// UpdateReport shows a statistics-match report
func (ip *InfoPanel) UpdateReport(report metrics.MatchReport) {
	ip.scoreLabel.SetText(fmt.Sprintf("Score: %.1f%% (%s)", report.OverallScore, report.MatchLevel))

	info := ip.evaluator.GetMetricInfo()
	ip.metricsContent.RemoveAll()
	for _, name := range ip.evaluator.Names() {
		value, ok := report.Metrics[name]
		if !ok {
			continue
		}
		ip.metricsContent.Add(widget.NewLabel(fmt.Sprintf("%s: %.3f", info[name].Name, value)))
	}
	ip.metricsContent.Refresh()
}
