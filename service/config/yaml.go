package config

import (
	"os"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/khaledhikmat/alpr-go/model"
)

type fileConfig struct {
	ShutdownTimeoutS int                  `yaml:"shutdown_timeout_s"`
	InputFolder      string               `yaml:"input_folder"`
	OutputFolder     string               `yaml:"output_folder"`
	Source           sourceConfig         `yaml:"source"`
	Worker           workerConfig         `yaml:"worker"`
	Detector         DetectorParameters   `yaml:"detector"`
	Recognizer       RecognizerParameters `yaml:"recognizer"`
	MQTT             EmitterParameters    `yaml:"mqtt"`
	ConsoleRefreshMs int                  `yaml:"console_refresh_ms"`
}

type sourceConfig struct {
	Name        string     `yaml:"name"`
	URL         string     `yaml:"url"`
	Type        string     `yaml:"type"`
	ROI         *model.ROI `yaml:"roi,omitempty"`
	SubmitEvery int        `yaml:"submit_every"`
}

type workerConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	StopTimeoutMs  int `yaml:"stop_timeout_ms"`
	StatsPeriodS   int `yaml:"stats_period_s"`
	MinBoxArea     int `yaml:"min_box_area"`
}

// yamlService reads settings from a YAML file. Anything the file leaves out
// falls back to the hardcoded defaults.
type yamlService struct {
	cfg      fileConfig
	fallback IService
}

func NewYaml(path string) (IService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, xerrors.Errorf("failed to parse config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, xerrors.Errorf("invalid configuration: %w", err)
	}

	return &yamlService{
		cfg:      cfg,
		fallback: NewHardCoded(),
	}, nil
}

func validate(cfg *fileConfig) error {
	if cfg.Source.SubmitEvery < 0 {
		return xerrors.Errorf("source.submit_every must be >= 0, got %d", cfg.Source.SubmitEvery)
	}

	if roi := cfg.Source.ROI; roi != nil {
		if roi.X1 < 0 || roi.Y1 < 0 || roi.X1 > roi.X2 || roi.Y1 > roi.Y2 {
			return xerrors.Errorf("source.roi %s: corners out of order", roi)
		}
	}

	if c := cfg.Detector.ConfidenceThreshold; c < 0 || c > 1 {
		return xerrors.Errorf("detector.confidence must be in [0,1], got %v", c)
	}

	switch cfg.Recognizer.Type {
	case "", TesseractRecognizerName, CTCRecognizerName:
	default:
		return xerrors.Errorf("unknown recognizer type: %s", cfg.Recognizer.Type)
	}

	if cfg.MQTT.QoS > 2 {
		return xerrors.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}

	return nil
}

func (svc *yamlService) GetModeMaxShutdownTime() int {
	return orInt(svc.cfg.ShutdownTimeoutS, svc.fallback.GetModeMaxShutdownTime())
}

func (svc *yamlService) GetInputFolder() string {
	return orString(svc.cfg.InputFolder, svc.fallback.GetInputFolder())
}

func (svc *yamlService) GetOutputFolder() string {
	return orString(svc.cfg.OutputFolder, svc.fallback.GetOutputFolder())
}

func (svc *yamlService) GetSource() model.Source {
	def := svc.fallback.GetSource()
	src := svc.cfg.Source
	return model.Source{
		Name:        orString(src.Name, def.Name),
		URL:         orString(src.URL, def.URL),
		Type:        orString(src.Type, def.Type),
		ROI:         src.ROI,
		SubmitEvery: orInt(src.SubmitEvery, def.SubmitEvery),
	}
}

func (svc *yamlService) GetWorkerPollInterval() time.Duration {
	if svc.cfg.Worker.PollIntervalMs > 0 {
		return time.Duration(svc.cfg.Worker.PollIntervalMs) * time.Millisecond
	}
	return svc.fallback.GetWorkerPollInterval()
}

func (svc *yamlService) GetWorkerStopTimeout() time.Duration {
	if svc.cfg.Worker.StopTimeoutMs > 0 {
		return time.Duration(svc.cfg.Worker.StopTimeoutMs) * time.Millisecond
	}
	return svc.fallback.GetWorkerStopTimeout()
}

func (svc *yamlService) GetWorkerStatsPeriodicTimeout() int {
	return orInt(svc.cfg.Worker.StatsPeriodS, svc.fallback.GetWorkerStatsPeriodicTimeout())
}

func (svc *yamlService) GetMinBoxArea() int {
	return orInt(svc.cfg.Worker.MinBoxArea, svc.fallback.GetMinBoxArea())
}

func (svc *yamlService) GetDetectorParameters() DetectorParameters {
	def := svc.fallback.GetDetectorParameters()
	p := svc.cfg.Detector
	if p.ConfidenceThreshold == 0 {
		p.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if p.NMSThreshold == 0 {
		p.NMSThreshold = def.NMSThreshold
	}
	p.ModelPath = orString(p.ModelPath, def.ModelPath)
	p.InputSize = orInt(p.InputSize, def.InputSize)
	p.PlateClassID = orInt(p.PlateClassID, def.PlateClassID)
	return p
}

func (svc *yamlService) GetRecognizerParameters() RecognizerParameters {
	def := svc.fallback.GetRecognizerParameters()
	p := svc.cfg.Recognizer
	p.Type = orString(p.Type, def.Type)
	p.Language = orString(p.Language, def.Language)
	p.Whitelist = orString(p.Whitelist, def.Whitelist)
	p.ModelPath = orString(p.ModelPath, def.ModelPath)
	p.DictPath = orString(p.DictPath, def.DictPath)
	p.InputHeight = orInt(p.InputHeight, def.InputHeight)
	p.PlatePattern = orString(p.PlatePattern, def.PlatePattern)
	return p
}

func (svc *yamlService) GetEmitterParameters() EmitterParameters {
	def := svc.fallback.GetEmitterParameters()
	p := svc.cfg.MQTT
	p.Broker = orString(p.Broker, def.Broker)
	p.Topic = orString(p.Topic, def.Topic)
	p.ClientID = orString(p.ClientID, def.ClientID)
	return p
}

func (svc *yamlService) GetConsoleRefreshPeriod() time.Duration {
	if svc.cfg.ConsoleRefreshMs > 0 {
		return time.Duration(svc.cfg.ConsoleRefreshMs) * time.Millisecond
	}
	return svc.fallback.GetConsoleRefreshPeriod()
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
