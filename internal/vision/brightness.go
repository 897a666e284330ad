package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	_ "image/jpeg"
	_ "image/png"
)

// FrameInfo carries the lighting estimate and dimensions of a decoded frame.
type FrameInfo struct {
	Brightness float64 // mean luma in [0, 255]
	Width      int
	Height     int
}

// Measure decodes an encoded frame and computes its mean luma.
func Measure(data []byte) (FrameInfo, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return FrameInfo{}, fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return FrameInfo{}, fmt.Errorf("empty frame")
	}

	var sum uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			sum += uint64(g.Y)
		}
	}

	return FrameInfo{
		Brightness: float64(sum) / float64(w*h),
		Width:      w,
		Height:     h,
	}, nil
}
