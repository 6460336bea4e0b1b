// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/sirupsen/logrus"

	"photosynthesis/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger logrus.FieldLogger

	onOpen func(string)
	onSave func(string)
}

func NewMenuHandler(window fyne.Window, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

// SetCallbacks sets the handlers receiving chosen file paths
func (mh *MenuHandler) SetCallbacks(onOpen, onSave func(string)) {
	mh.onOpen = onOpen
	mh.onSave = onSave
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		fyne.NewMenuItem("Save Frame...", mh.saveFrame),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openImage() {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mh.window)
			return
		}
		if reader == nil {
			return
		}
		filepath := reader.URI().Path()
		reader.Close()

		if mh.onOpen != nil {
			mh.onOpen(filepath)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) saveFrame() {
	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mh.window)
			return
		}
		if writer == nil {
			return
		}
		filepath := writer.URI().Path()
		writer.Close()

		if mh.onSave != nil {
			mh.onSave(filepath)
		}
	}, mh.window)

	saveDialog.SetFileName("frame.png")
	saveDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	saveDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	dialog.ShowInformation("About Photosynthesis",
		"Analyzes an image into a multiresolution pyramid of color and detail statistics\n"+
			"and continuously resynthesizes a texture that matches them.\n\n"+
			"Press F to reload the last image.",
		mh.window)
}
