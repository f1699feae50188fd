package pipeline

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/data"
	"github.com/khaledhikmat/alpr-go/service/emitter"
	"github.com/khaledhikmat/alpr-go/service/inference"
)

// ErrEndOfStream is returned by a Source that has no more frames.
var ErrEndOfStream = xerrors.New("source: end of stream")

type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	InferenceSvc inference.IService
	EmitterSvc   emitter.IService
}

// Detector locates candidate plate boxes in a frame. Boxes are in the coordinates of the
// frame it was given. It must not modify the frame.
type Detector interface {
	Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error)
}

// Recognizer reads plate characters from a cropped frame. An empty string means no
// confident text. It must not modify the crop.
type Recognizer interface {
	Recognize(ctx context.Context, crop model.Frame) (string, error)
}

// Source produces frames for the Framer.
type Source interface {
	Read() (model.Frame, error)
	Close() error
}

// Reader is called by the Framer with every captured frame and the latest snapshot.
type Reader func(frame model.Frame, snapshot model.Snapshot)

// Submission is the pair handed from the producer to the worker.
type Submission struct {
	Frame model.Frame
	ROI   *model.ROI
}

type DetectorFunc func(ctx context.Context, frame model.Frame) ([]model.Detection, error)

func (f DetectorFunc) Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	return f(ctx, frame)
}

type RecognizerFunc func(ctx context.Context, crop model.Frame) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, crop model.Frame) (string, error) {
	return f(ctx, crop)
}
