// Conversion between float display buffers and 8-bit images
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"

	"photosynthesis/internal/pyramid"
)

// Clamp rounds v to the nearest integer and clamps it to [0, 255]
func Clamp(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// ToRGBA converts a res x res float RGBA buffer into an image, clamping every channel
func ToRGBA(buf []float64, res int) (*image.RGBA, error) {
	if err := pyramid.ValidateBuffer(len(buf), res); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, res, res))
	WriteRGBA(img, buf)
	return img, nil
}

// WriteRGBA clamps buf into an existing image of matching size
func WriteRGBA(img *image.RGBA, buf []float64) {
	res := img.Rect.Dx()
	for i := 0; i < res; i++ {
		row := img.Pix[i*img.Stride : i*img.Stride+res*pyramid.Channels]
		src := buf[i*res*pyramid.Channels : (i+1)*res*pyramid.Channels]
		for k, v := range src {
			row[k] = Clamp(v)
		}
	}
}

// FromImage flattens a square power-of-two image into a row-major RGBA byte buffer
func FromImage(img image.Image) ([]uint8, int, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, 0, fmt.Errorf("%w: image is %dx%d, not square", pyramid.ErrInvalidImageDimensions, b.Dx(), b.Dy())
	}
	res := b.Dx()
	if !pyramid.IsPowerOfTwo(res) {
		return nil, 0, fmt.Errorf("%w: side %d is not a power of two", pyramid.ErrInvalidImageDimensions, res)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != res*pyramid.Channels {
		rgba = image.NewRGBA(image.Rect(0, 0, res, res))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	out := make([]uint8, pyramid.Channels*res*res)
	copy(out, rgba.Pix)
	return out, res, nil
}

// Upscale enlarges a frame by nearest-neighbour sampling so pyramid blocks stay crisp
func Upscale(img image.Image, size int) image.Image {
	if size <= 0 || size == img.Bounds().Dx() {
		return img
	}
	return resize.Resize(uint(size), uint(size), img, resize.NearestNeighbor)
}
