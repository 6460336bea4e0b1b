package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedImageFormat(t *testing.T) {
	for _, path := range []string{"frog.png", "a/b/PHOTO.JPG", "scan.tif", "x.bmp"} {
		assert.True(t, IsSupportedImageFormat(path), path)
	}
	for _, path := range []string{"notes.txt", "noext", "dir.png/file", `c:\img.gif`} {
		assert.False(t, IsSupportedImageFormat(path), path)
	}
}

func TestGetFileExtension(t *testing.T) {
	assert.Equal(t, ".png", getFileExtension("/tmp/frame_00001.png"))
	assert.Equal(t, "", getFileExtension("/tmp.d/frame"))
	assert.Equal(t, "", getFileExtension(`C:\tmp.d\frame`))
}
