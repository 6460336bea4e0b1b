// Image file loading for uploads and frame saving
package io

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"photosynthesis/internal/pyramid"
)

// ImageLoader turns arbitrary image files into square RGBA buffers for analysis
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger.WithField("component", "loader"),
	}
}

// LoadFile reads an image from disk and prepares it at resolution res
func (il *ImageLoader) LoadFile(filepath string, res int) ([]uint8, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !IsSupportedImageFormat(filepath) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath)
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", filepath, err)
	}

	buf, err := il.Decode(data, res)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", filepath, err)
	}
	return buf, nil
}

// Decode decodes encoded image bytes, centre-crops to a square, resizes to
// res x res and returns a row-major RGBA buffer of 4*res*res bytes.
func (il *ImageLoader) Decode(data []byte, res int) ([]uint8, error) {
	if !pyramid.IsPowerOfTwo(res) {
		return nil, fmt.Errorf("%w: resolution %d is not a power of two", pyramid.ErrInvalidConfiguration, res)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decode: empty or corrupted image")
	}

	il.logger.WithFields(logrus.Fields{
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image decoded")

	return il.toBuffer(mat, res)
}

func (il *ImageLoader) toBuffer(mat gocv.Mat, res int) ([]uint8, error) {
	rows, cols := mat.Rows(), mat.Cols()
	side := min(rows, cols)
	x0 := (cols - side) / 2
	y0 := (rows - side) / 2

	square := mat.Region(image.Rect(x0, y0, x0+side, y0+side))
	defer square.Close()

	// area interpolation box-filters when shrinking; linear when enlarging
	interp := gocv.InterpolationArea
	if side < res {
		interp = gocv.InterpolationLinear
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(square, &resized, image.Point{X: res, Y: res}, 0, 0, interp)

	rgba := gocv.NewMat()
	defer rgba.Close()
	if err := gocv.CvtColor(resized, &rgba, gocv.ColorBGRToRGBA); err != nil {
		return nil, fmt.Errorf("color conversion: %w", err)
	}

	buf := rgba.ToBytes()
	if err := pyramid.ValidateBuffer(len(buf), res); err != nil {
		return nil, err
	}

	il.logger.WithFields(logrus.Fields{
		"crop":       side,
		"resolution": res,
	}).Debug("Image prepared for analysis")

	return buf, nil
}

// SaveFrame writes a synthesized frame to disk in the format implied by the extension
func (il *ImageLoader) SaveFrame(img image.Image, filepath string) error {
	if !IsSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(filepath, mat) {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Debug("Frame saved")

	return nil
}

// SupportedExtensions lists the file extensions accepted for upload and output
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}
}

// IsSupportedImageFormat reports whether the path has a supported image extension
func IsSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	for _, format := range SupportedExtensions() {
		if ext == format {
			return true
		}
	}
	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}
