// Package ctc reads plate text with a CTC text-line model run by the OpenCV DNN module.
package ctc

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

const minInputWidth = 8

type Recognizer struct {
	height int
	dict   []string

	mu  sync.Mutex // gocv.Net is not thread-safe
	net gocv.Net
}

func New(params config.RecognizerParameters) (*Recognizer, error) {
	if _, err := os.Stat(params.ModelPath); err != nil {
		return nil, xerrors.Errorf("ctc: model %s: %w", params.ModelPath, err)
	}

	dict, err := LoadDict(params.DictPath)
	if err != nil {
		return nil, err
	}

	height := params.InputHeight
	if height <= 0 {
		height = 64
	}

	net := gocv.ReadNet(params.ModelPath, "")
	if net.Empty() {
		return nil, xerrors.Errorf("ctc: error reading model %s", params.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("ctc: setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("ctc: setting target: %w", err)
	}

	lgr.Logger.Info("ctc recognizer ready",
		slog.String("model", params.ModelPath),
		slog.Int("symbols", len(dict)-1),
		slog.Int("inputHeight", height),
	)

	return &Recognizer{
		height: height,
		dict:   dict,
		net:    net,
	}, nil
}

// Recognize feeds the crop as a normalized grayscale line of fixed height and greedy decodes
// the per step class scores.
func (r *Recognizer) Recognize(ctx context.Context, crop model.Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := vision.ToBGR(crop)
	if err != nil {
		return "", err
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	width := crop.Width * r.height / crop.Height
	if width < minInputWidth {
		width = minInputWidth
	}

	// (p/255 - 0.5) / 0.5
	blob := gocv.BlobFromImage(gray, 1.0/127.5, image.Pt(width, r.height), gocv.NewScalar(127.5, 0, 0, 0), false, false)
	defer blob.Close()

	r.mu.Lock()
	r.net.SetInput(blob, "")
	output := r.net.Forward("")
	r.mu.Unlock()
	defer output.Close()

	dims := output.Size()
	if len(dims) < 2 {
		return "", xerrors.Errorf("ctc: unexpected output dims %v", dims)
	}

	scores, err := output.DataPtrFloat32()
	if err != nil {
		return "", xerrors.Errorf("ctc: reading output: %w", err)
	}

	return greedyDecode(argmax(scores, dims[len(dims)-1]), r.dict), nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.net.Close()
}
