package recognizer

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/khaledhikmat/alpr-go/model"
)

// Plate crops are tiny; OCR engines read them better upscaled.
const minEnhancedHeight = 64

// Enhance prepares a plate crop for OCR: upscale small crops, grayscale, stretch contrast and
// sharpen.
func Enhance(crop model.Frame) *image.NRGBA {
	var img image.Image = crop.Image()

	if b := img.Bounds(); b.Dy() > 0 && b.Dy() < minEnhancedHeight {
		scale := (minEnhancedHeight + b.Dy() - 1) / b.Dy()
		img = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	contrast := imaging.AdjustContrast(gray, 10)
	return imaging.Sharpen(contrast, 1.1)
}

// EncodePNG runs Enhance and encodes the result for engines that take image files.
func EncodePNG(crop model.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Enhance(crop), imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
