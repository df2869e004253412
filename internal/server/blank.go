package server

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// BlankDetector reports whether a submitted drawing shows nothing. The
// game only consumes the boolean; rendering heuristics live behind this
// interface so tests can substitute their own.
type BlankDetector interface {
	IsBlank(payload []byte) bool
}

type pixelScanDetector struct{}

// NewBlankDetector returns the default detector: a payload is blank when
// it is empty, cannot be decoded, or every pixel is white or fully
// transparent.
func NewBlankDetector() BlankDetector {
	return pixelScanDetector{}
}

func (pixelScanDetector) IsBlank(payload []byte) bool {
	if len(payload) == 0 {
		return true
	}
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return true
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			if r == 0xffff && g == 0xffff && b == 0xffff {
				continue
			}
			return false
		}
	}
	return true
}

var blankPNG = renderBlankCanvas()

// renderBlankCanvas produces the white 400x300 placeholder substituted
// for copies that were never submitted.
func renderBlankCanvas() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
