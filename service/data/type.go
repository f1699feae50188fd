package data

import "github.com/khaledhikmat/alpr-go/model"

type IService interface {
	NewError(err interface{}) error
	NewWorkerStats(stats model.WorkerStats) error
	NewFramerStats(stats model.FramerStats) error
	RetrieveErrors() ([]ErrorRecord, error)
	RetrieveWorkerStats() ([]model.WorkerStats, error)
}

type ErrorRecord struct {
	Timestamp  int64                  `json:"timestamp"`
	Processor  string                 `json:"processor"`
	Inner      string                 `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}
