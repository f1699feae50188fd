package config

import (
	"github.com/khaledhikmat/alpr-go/model"
)

// Overrides carries command line values. Zero values leave the wrapped service untouched.
type Overrides struct {
	SourceURL   string
	SourceType  string
	ROI         *model.ROI
	SubmitEvery int
	Recognizer  string
}

type overriddenService struct {
	IService
	overrides Overrides
}

func WithOverrides(svc IService, overrides Overrides) IService {
	return &overriddenService{
		IService:  svc,
		overrides: overrides,
	}
}

func (svc *overriddenService) GetSource() model.Source {
	src := svc.IService.GetSource()
	if svc.overrides.SourceURL != "" {
		src.URL = svc.overrides.SourceURL
		src.Name = svc.overrides.SourceURL
	}
	if svc.overrides.SourceType != "" {
		src.Type = svc.overrides.SourceType
	}
	if svc.overrides.ROI != nil {
		src.ROI = svc.overrides.ROI
	}
	if svc.overrides.SubmitEvery > 0 {
		src.SubmitEvery = svc.overrides.SubmitEvery
	}
	return src
}

func (svc *overriddenService) GetRecognizerParameters() RecognizerParameters {
	p := svc.IService.GetRecognizerParameters()
	if svc.overrides.Recognizer != "" {
		p.Type = svc.overrides.Recognizer
	}
	return p
}
