// Package vision converts between pipeline frames and gocv matrices.
package vision

import (
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
)

// ToMat copies the frame into a new Mat. The caller must close it when err is nil.
func ToMat(frame model.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, xerrors.New("vision: empty frame")
	}

	mt := gocv.MatTypeCV8UC3
	if frame.Format == model.PixelFormatGray {
		mt = gocv.MatTypeCV8UC1
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, mt, frame.Pix[:frame.Stride()*frame.Height])
	if err != nil {
		return gocv.Mat{}, xerrors.Errorf("vision: creating mat: %w", err)
	}
	return mat, nil
}

// ToBGR copies the frame into a new 3 channel BGR Mat. The caller must close it.
func ToBGR(frame model.Frame) (gocv.Mat, error) {
	mat, err := ToMat(frame)
	if err != nil {
		return mat, err
	}

	var code gocv.ColorConversionCode
	switch frame.Format {
	case model.PixelFormatBGR:
		return mat, nil
	case model.PixelFormatRGB:
		code = gocv.ColorRGBToBGR
	default:
		code = gocv.ColorGrayToBGR
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, code)
	mat.Close()
	return bgr, nil
}

// FromMat packs an 8-bit Mat (1 or 3 channels) into a frame.
func FromMat(mat gocv.Mat, seq uint64) (model.Frame, error) {
	if mat.Empty() {
		return model.Frame{}, xerrors.New("vision: empty mat")
	}

	format := model.PixelFormatBGR
	switch mat.Type() {
	case gocv.MatTypeCV8UC3:
	case gocv.MatTypeCV8UC1:
		format = model.PixelFormatGray
	default:
		return model.Frame{}, xerrors.Errorf("vision: unsupported mat type %v", mat.Type())
	}

	pix := mat.ToBytes()
	if !mat.IsContinuous() {
		c := mat.Clone()
		defer c.Close()
		pix = c.ToBytes()
	}

	return model.Frame{
		Pix:       pix,
		Width:     mat.Cols(),
		Height:    mat.Rows(),
		Format:    format,
		Seq:       seq,
		Timestamp: time.Now(),
	}, nil
}
