package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayJPEG(t *testing.T, w, h int, level uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestMeasure_UniformGray(t *testing.T) {
	info, err := Measure(grayJPEG(t, 64, 48, 40))
	require.NoError(t, err)

	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	// JPEG is lossy, allow a small band around the encoded level.
	assert.InDelta(t, 40, info.Brightness, 3)
}

func TestMeasure_InvalidData(t *testing.T) {
	_, err := Measure([]byte("not an image"))
	assert.Error(t, err)
}
