package config

import (
	"time"

	"github.com/khaledhikmat/alpr-go/model"
)

const (
	TesseractRecognizerName = "tesseract"
	CTCRecognizerName       = "ctc"
)

type DetectorParameters struct {
	ModelPath           string  `yaml:"model_path"`
	InputSize           int     `yaml:"input_size"`
	ConfidenceThreshold float32 `yaml:"confidence"`
	NMSThreshold        float32 `yaml:"nms"`
	PlateClassID        int     `yaml:"plate_class_id"`
}

type RecognizerParameters struct {
	Type         string `yaml:"type"`
	Language     string `yaml:"language"`
	Whitelist    string `yaml:"whitelist"`
	ModelPath    string `yaml:"model_path"`
	DictPath     string `yaml:"dict_path"`
	InputHeight  int    `yaml:"input_height"`
	PlatePattern string `yaml:"plate_pattern"`
}

type EmitterParameters struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	ClientID string `yaml:"client_id"`
}

type IService interface {
	GetModeMaxShutdownTime() int
	GetInputFolder() string
	GetOutputFolder() string
	GetSource() model.Source
	GetWorkerPollInterval() time.Duration
	GetWorkerStopTimeout() time.Duration
	GetWorkerStatsPeriodicTimeout() int
	GetMinBoxArea() int
	GetDetectorParameters() DetectorParameters
	GetRecognizerParameters() RecognizerParameters
	GetEmitterParameters() EmitterParameters
	GetConsoleRefreshPeriod() time.Duration
}
