package recognize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// maxOCRDimension bounds the longer image side before local OCR. Phone
// photos run 4000px+; Tesseract gains nothing past this size and the boxes
// this runs on (a Raspberry Pi in the field office) gain a lot.
const maxOCRDimension = 2000

// preprocessForOCR converts an encoded image to grayscale and scales it
// down to fit maxOCRDimension, returning encoded PNG bytes. Images already
// within bounds keep their dimensions.
func preprocessForOCR(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding for preprocess: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := fitWithin(w, h, maxOCRDimension)

	gray := image.NewGray(image.Rect(0, 0, tw, th))
	if tw == w && th == h {
		draw.Copy(gray, image.Point{}, img, bounds, draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin shrinks w×h proportionally so both sides fit max. It never
// scales up.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, scaleSide(h, w, max)
	}
	return scaleSide(w, h, max), max
}

func scaleSide(side, longest, max int) int {
	scaled := side * max / longest
	if scaled < 1 {
		return 1
	}
	return scaled
}
