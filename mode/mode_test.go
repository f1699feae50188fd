package mode

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/data"
	"github.com/khaledhikmat/alpr-go/service/emitter"
	"github.com/khaledhikmat/alpr-go/service/inference"
	"github.com/khaledhikmat/alpr-go/source"
)

type testConfig struct {
	config.IService
	folder string
}

func (c testConfig) GetInputFolder() string {
	return c.folder
}

func (c testConfig) GetWorkerPollInterval() time.Duration {
	return 5 * time.Millisecond
}

func testServices(t *testing.T) pipeline.ServicesFactory {
	t.Helper()
	cfgSvc := testConfig{IService: config.NewHardCoded(), folder: t.TempDir()}
	return pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      data.NewFilesDB(cfgSvc),
		InferenceSvc: inference.NewEveryN(2),
		EmitterSvc:   emitter.NewNoop(),
	}
}

func TestRunUntilEndOfStream(t *testing.T) {
	svcs := testServices(t)

	det := pipeline.DetectorFunc(func(context.Context, model.Frame) ([]model.Detection, error) {
		return []model.Detection{{Box: image.Rect(10, 10, 50, 30), Confidence: 0.9}}, nil
	})
	rec := pipeline.RecognizerFunc(func(context.Context, model.Frame) (string, error) {
		return "12가3456", nil
	})

	var frames int
	reader := func(model.Frame, model.Snapshot) { frames++ }

	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), svcs, "test", source.NewRandom(64, 48, 20, 0), det, rec, reader)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return after the source ended")
	}

	if frames != 20 {
		t.Errorf("reader saw %d frames, want 20", frames)
	}

	stats, err := svcs.DataSvc.RetrieveWorkerStats()
	if err != nil {
		t.Fatalf("RetrieveWorkerStats() error: %v", err)
	}
	if len(stats) == 0 {
		t.Fatal("no worker stats stored")
	}
	if got := stats[len(stats)-1].Submitted; got != 10 {
		t.Errorf("worker submissions = %d, want 10", got)
	}

	errs, err := svcs.DataSvc.RetrieveErrors()
	if err != nil {
		t.Fatalf("RetrieveErrors() error: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("stored errors: %+v", errs)
	}
}

func TestRunWithoutDetector(t *testing.T) {
	rec := pipeline.RecognizerFunc(func(context.Context, model.Frame) (string, error) {
		return "", nil
	})

	err := run(context.Background(), testServices(t), "test", source.NewRandom(8, 8, 1, 0), nil, rec)
	if err == nil {
		t.Fatal("run() without a detector returned no error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	svcs := testServices(t)
	det := pipeline.DetectorFunc(func(context.Context, model.Frame) ([]model.Detection, error) {
		return nil, nil
	})
	rec := pipeline.RecognizerFunc(func(context.Context, model.Frame) (string, error) {
		return "", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, svcs, "test", source.NewRandom(8, 8, 0, 200), det, rec)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
	case <-time.After(8 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}
