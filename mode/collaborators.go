package mode

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/detector/yolo"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/recognizer"
	"github.com/khaledhikmat/alpr-go/recognizer/ctc"
	"github.com/khaledhikmat/alpr-go/recognizer/tesseract"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/source"
)

type collaborators struct {
	detector   pipeline.Detector
	recognizer pipeline.Recognizer
	closers    []io.Closer
}

func (c *collaborators) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
}

func newCollaborators(cfgSvc config.IService) (*collaborators, error) {
	c := &collaborators{}

	det, err := yolo.New(cfgSvc.GetDetectorParameters())
	if err != nil {
		return nil, err
	}
	c.detector = det
	c.closers = append(c.closers, det)

	params := cfgSvc.GetRecognizerParameters()
	var raw pipeline.Recognizer
	switch params.Type {
	case config.CTCRecognizerName:
		rec, err := ctc.New(params)
		if err != nil {
			c.Close()
			return nil, err
		}
		raw = rec
		c.closers = append(c.closers, rec)
	case config.TesseractRecognizerName, "":
		rec, err := tesseract.New(params)
		if err != nil {
			c.Close()
			return nil, err
		}
		raw = rec
		c.closers = append(c.closers, rec)
	default:
		c.Close()
		return nil, xerrors.Errorf("unknown recognizer type: %s", params.Type)
	}

	normalizer, err := recognizer.NewPlateNormalizer(raw, params.PlatePattern)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.recognizer = normalizer

	return c, nil
}

type frameSource interface {
	pipeline.Source
	FrameCount() int
}

func openSource(cfgSvc config.IService) (frameSource, error) {
	src := cfgSvc.GetSource()
	if src.Type == "random" {
		return source.NewRandom(640, 480, 0, 30), nil
	}

	capture, err := source.NewCapture(src)
	if err != nil {
		return nil, err
	}
	return capture, nil
}
