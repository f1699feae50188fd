// Package yolo detects license plates with a YOLOv5 ONNX model run by the OpenCV DNN module.
package yolo

import (
	"context"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/lgr"
	"github.com/khaledhikmat/alpr-go/vision"
)

const PlateLabel = "plate"

type Detector struct {
	params config.DetectorParameters

	mu  sync.Mutex // gocv.Net is not thread-safe
	net gocv.Net
}

func New(params config.DetectorParameters) (*Detector, error) {
	if _, err := os.Stat(params.ModelPath); err != nil {
		return nil, xerrors.Errorf("yolo detector: model %s: %w", params.ModelPath, err)
	}
	if params.InputSize <= 0 {
		params.InputSize = 640
	}

	net := gocv.ReadNet(params.ModelPath, "")
	if net.Empty() {
		return nil, xerrors.Errorf("yolo detector: error reading model %s", params.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("yolo detector: setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("yolo detector: setting target: %w", err)
	}

	lgr.Logger.Info("yolo detector ready",
		slog.String("model", params.ModelPath),
		slog.Int("inputSize", params.InputSize),
		slog.String("openCV", gocv.Version()),
	)

	return &Detector{
		params: params,
		net:    net,
	}, nil
}

// Detect returns the plates found in frame after non-maximum suppression, in frame pixels.
func (d *Detector) Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := vision.ToBGR(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	size := d.params.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, xerrors.Errorf("yolo detector: unexpected output dims %v", dims)
	}

	reshaped := output.Reshape(1, dims[1])
	defer reshaped.Close()
	if reshaped.Empty() || reshaped.Rows() == 0 || reshaped.Cols() < 5 {
		return nil, xerrors.Errorf("yolo detector: unexpected output shape %dx%d", reshaped.Rows(), reshaped.Cols())
	}

	sx := float32(frame.Width) / float32(size)
	sy := float32(frame.Height) / float32(size)

	var candidates []model.Detection
	for i := 0; i < reshaped.Rows(); i++ {
		row := reshaped.RowRange(i, i+1)
		data, err := row.DataPtrFloat32()
		if err != nil {
			row.Close()
			continue
		}

		det, ok := decodeRow(data, sx, sy, d.params.ConfidenceThreshold)
		row.Close()
		if !ok {
			continue
		}
		candidates = append(candidates, det)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Confidence
	}

	indices := gocv.NMSBoxes(boxes, scores, d.params.ConfidenceThreshold, d.params.NMSThreshold)
	detections := make([]model.Detection, 0, len(indices))
	for _, idx := range indices {
		det := candidates[idx]
		if det.ClassID == d.params.PlateClassID {
			det.Label = PlateLabel
		}
		detections = append(detections, det)
	}

	return detections, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
