// ABOUTME: Solid red PNG returned in place of an unavailable map or camera frame
// ABOUTME: Encoded once on first use and shared afterwards

package telemetry

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
)

// Placeholder dimensions.
const (
	PlaceholderWidth  = 400
	PlaceholderHeight = 100
)

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// Placeholder returns the encoded placeholder image. Callers must not
// modify the returned slice.
func Placeholder() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 255, A: 255}}, image.Point{}, draw.Src)

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			panic("encoding placeholder png: " + err.Error())
		}
		placeholderPNG = buf.Bytes()
	})
	return placeholderPNG
}
