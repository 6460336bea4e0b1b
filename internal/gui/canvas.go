// internal/gui/canvas.go
// Synthesized image view with the level-of-detail bar underneath
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SynthCanvas shows the current frame scaled with crisp pixels
type SynthCanvas struct {
	image *canvas.Image

	bar       *fyne.Container
	barLayout *fractionLayout

	container *fyne.Container
}

func NewSynthCanvas(initial image.Image, accent color.Color) *SynthCanvas {
	sc := &SynthCanvas{}

	sc.image = canvas.NewImageFromImage(initial)
	sc.image.FillMode = canvas.ImageFillContain
	sc.image.ScaleMode = canvas.ImageScalePixels
	sc.image.SetMinSize(fyne.NewSize(512, 512))

	track := canvas.NewRectangle(color.NRGBA{R: 0x1c, G: 0x23, B: 0x21, A: 0xff})
	fill := canvas.NewRectangle(accent)
	sc.barLayout = &fractionLayout{}
	sc.bar = container.New(sc.barLayout, track, fill)

	sc.container = container.NewBorder(
		nil,
		container.NewVBox(widget.NewLabel("Level of detail"), sc.bar),
		nil,
		nil,
		container.NewPadded(sc.image),
	)
	return sc
}

func (sc *SynthCanvas) GetContainer() fyne.CanvasObject {
	return sc.container
}

// Update swaps in a new frame and moves the bar to t. Must run on the UI goroutine.
func (sc *SynthCanvas) Update(frame image.Image, t float64) {
	sc.image.Image = frame
	sc.image.Refresh()

	sc.barLayout.fraction = t
	sc.bar.Refresh()
}

// fractionLayout stretches the first object over the whole area and the second
// over the leading fraction of its width
type fractionLayout struct {
	fraction float64
}

func (l *fractionLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	objects[0].Move(fyne.NewPos(0, 0))
	objects[0].Resize(size)

	f := float32(min(max(l.fraction, 0), 1))
	objects[1].Move(fyne.NewPos(0, 0))
	objects[1].Resize(fyne.NewSize(size.Width*f, size.Height))
}

func (l *fractionLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(100, 20)
}
