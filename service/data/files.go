package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/config"
)

// filesDBService keeps each entity kind as a JSON array in the input folder.
type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Processor = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		return xerrors.Errorf("unsupported error value: %v", err)
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	record := ErrorRecord{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(record, "errors", svc.CfgSvc)
}

func (svc *filesDBService) NewWorkerStats(stats model.WorkerStats) error {
	stats.Timestamp = time.Now().Unix()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(stats, "worker-stats", svc.CfgSvc)
}

func (svc *filesDBService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(stats, "framer-stats", svc.CfgSvc)
}

func (svc *filesDBService) RetrieveErrors() ([]ErrorRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveEntities[ErrorRecord]("errors", svc.CfgSvc)
}

func (svc *filesDBService) RetrieveWorkerStats() ([]model.WorkerStats, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveEntities[model.WorkerStats]("worker-stats", svc.CfgSvc)
}

func entityFile(filename string, cfgsvc config.IService) string {
	return filepath.Join(cfgsvc.GetInputFolder(), fmt.Sprintf("%s.json", filename))
}

func newEntity[T any](entity T, filename string, cfgsvc config.IService) error {
	entities, err := retrieveEntities[T](filename, cfgsvc)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgsvc.GetInputFolder(), 0755); err != nil {
		return err
	}

	// Write the JSON data to the file (with truncation)
	return os.WriteFile(entityFile(filename, cfgsvc), data, 0644)
}

func retrieveEntities[T any](filename string, cfgsvc config.IService) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityFile(filename, cfgsvc))
	if os.IsNotExist(err) {
		// WARNING: File not found, return empty slice
		return entities, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, xerrors.Errorf("decoding %s: %w", filename, err)
	}

	return entities, nil
}
