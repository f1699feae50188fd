package config

import (
	"time"

	"github.com/khaledhikmat/alpr-go/model"
)

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetInputFolder() string {
	return "./settings"
}

func (svc *hardcodedService) GetOutputFolder() string {
	return "./output"
}

func (svc *hardcodedService) GetSource() model.Source {
	// Default webcam, every 60th frame goes to the worker
	return model.Source{
		Name:        "webcam",
		URL:         "0",
		Type:        "capture",
		SubmitEvery: 60,
	}
}

func (svc *hardcodedService) GetWorkerPollInterval() time.Duration {
	return 100 * time.Millisecond
}

func (svc *hardcodedService) GetWorkerStopTimeout() time.Duration {
	return time.Second
}

func (svc *hardcodedService) GetWorkerStatsPeriodicTimeout() int {
	return 30
}

func (svc *hardcodedService) GetMinBoxArea() int {
	return 0
}

func (svc *hardcodedService) GetDetectorParameters() DetectorParameters {
	return DetectorParameters{
		ModelPath:           "./yolo_weight/best.onnx",
		InputSize:           640,
		ConfidenceThreshold: 0.7,
		NMSThreshold:        0.45,
		PlateClassID:        0,
	}
}

func (svc *hardcodedService) GetRecognizerParameters() RecognizerParameters {
	return RecognizerParameters{
		Type:         TesseractRecognizerName,
		Language:     "kor",
		Whitelist:    "",
		ModelPath:    "./ocr_weight/plate.onnx",
		DictPath:     "./ocr_weight/dict.txt",
		InputHeight:  64,
		PlatePattern: `\d{2,3}[가-힣]\d{4}`,
	}
}

func (svc *hardcodedService) GetEmitterParameters() EmitterParameters {
	// No broker means snapshots are not emitted
	return EmitterParameters{
		Broker: "",
		Topic:  "alpr/plates",
		QoS:    0,
	}
}

func (svc *hardcodedService) GetConsoleRefreshPeriod() time.Duration {
	return 500 * time.Millisecond
}
