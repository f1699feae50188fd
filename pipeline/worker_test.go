package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
)

func newTestWorker(det Detector, rec Recognizer) *Worker {
	return NewWorker(det, rec, WorkerOptions{
		Source:       "test",
		PollInterval: 10 * time.Millisecond,
		StopTimeout:  500 * time.Millisecond,
	})
}

func startWorker(t *testing.T, w *Worker) {
	t.Helper()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
}

// runCycle submits one frame and waits for the cycle it produces.
func runCycle(t *testing.T, w *Worker, frame model.Frame, roi *model.ROI) model.Snapshot {
	t.Helper()
	before := w.Latest().Cycle
	w.Submit(frame, roi)
	waitFor(t, "a published cycle", func() bool { return w.Latest().Cycle > before })
	return w.Latest()
}

func TestWorkerEmptyDetection(t *testing.T) {
	det := &fakeDetector{}
	rec := &fakeRecognizer{text: "12가3456"}
	w := newTestWorker(det, rec)
	startWorker(t, w)

	snapshot := runCycle(t, w, testFrame(1, 64, 48), nil)
	if snapshot.HasDetection() || snapshot.HasText() {
		t.Errorf("snapshot = %+v, want none", snapshot)
	}
	if rec.calls.Load() != 0 {
		t.Errorf("recognizer called %d times with no detections", rec.calls.Load())
	}
	if w.Stats().Empty != 1 {
		t.Errorf("empty cycles = %d, want 1", w.Stats().Empty)
	}
}

func TestWorkerROITranslation(t *testing.T) {
	det := &fakeDetector{
		detect: func(frame model.Frame) ([]model.Detection, error) {
			return []model.Detection{plate(0, 0, 5, 5), plate(10, 10, 30, 30)}, nil
		},
	}
	rec := &fakeRecognizer{text: "12가3456"}
	w := newTestWorker(det, rec)
	startWorker(t, w)

	roi := &model.ROI{X1: 50, Y1: 50, X2: 150, Y2: 150}
	snapshot := runCycle(t, w, testFrame(1, 200, 200), roi)

	seen := det.seen()
	if len(seen) != 1 || seen[0].Width != 101 || seen[0].Height != 101 {
		t.Fatalf("detector saw %d frames, want one 101x101 roi", len(seen))
	}
	if !snapshot.HasDetection() {
		t.Fatal("no detection published")
	}
	if want := image.Rect(60, 60, 80, 80); snapshot.Detection.Box != want {
		t.Errorf("box = %v, want %v", snapshot.Detection.Box, want)
	}
	if snapshot.Text != "12가3456" {
		t.Errorf("text = %q", snapshot.Text)
	}
	if crop := rec.lastCrop(); crop.Width != 20 || crop.Height != 20 {
		t.Errorf("recognizer got a %dx%d crop, want 20x20", crop.Width, crop.Height)
	}
}

func TestWorkerPicksLargestPlate(t *testing.T) {
	car := plate(0, 0, 60, 60)
	car.ClassID = 2
	det := &fakeDetector{
		detect: func(model.Frame) ([]model.Detection, error) {
			return []model.Detection{car, plate(0, 0, 10, 10), plate(20, 20, 40, 40), plate(0, 0, 15, 15)}, nil
		},
	}
	w := newTestWorker(det, &fakeRecognizer{})
	startWorker(t, w)

	snapshot := runCycle(t, w, testFrame(1, 64, 64), nil)
	if !snapshot.HasDetection() {
		t.Fatal("no detection published")
	}
	if want := image.Rect(20, 20, 40, 40); snapshot.Detection.Box != want {
		t.Errorf("box = %v, want %v", snapshot.Detection.Box, want)
	}
	if snapshot.HasText() {
		t.Errorf("text = %q, want none", snapshot.Text)
	}
}

func TestWorkerDegradesOnFailures(t *testing.T) {
	testCases := []struct {
		name          string
		detect        func(model.Frame) ([]model.Detection, error)
		recErr        error
		wantDetection bool
		wantRecCalls  int32
	}{
		{
			name:   "detector error",
			detect: func(model.Frame) ([]model.Detection, error) { return nil, errors.New("model failed") },
		},
		{
			name:   "detector panic",
			detect: func(model.Frame) ([]model.Detection, error) { panic("boom") },
		},
		{
			name:   "zero width box",
			detect: func(model.Frame) ([]model.Detection, error) { return []model.Detection{plate(10, 10, 10, 30)}, nil },
		},
		{
			name:   "box outside the frame",
			detect: func(model.Frame) ([]model.Detection, error) { return []model.Detection{plate(100, 100, 120, 120)}, nil },
		},
		{
			name:          "recognizer error",
			detect:        func(model.Frame) ([]model.Detection, error) { return []model.Detection{plate(0, 0, 8, 8)}, nil },
			recErr:        errors.New("ocr failed"),
			wantDetection: true,
			wantRecCalls:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecognizer{text: "12가3456", err: tc.recErr}
			w := newTestWorker(&fakeDetector{detect: tc.detect}, rec)
			startWorker(t, w)

			snapshot := runCycle(t, w, testFrame(1, 32, 32), nil)
			if snapshot.HasDetection() != tc.wantDetection {
				t.Errorf("detection = %v, want present=%v", snapshot.Detection, tc.wantDetection)
			}
			if snapshot.HasText() {
				t.Errorf("text = %q, want none", snapshot.Text)
			}
			if got := rec.calls.Load(); got != tc.wantRecCalls {
				t.Errorf("recognizer calls = %d, want %d", got, tc.wantRecCalls)
			}

			// The loop keeps going after a failure
			next := runCycle(t, w, testFrame(2, 32, 32), nil)
			if next.FrameSeq != 2 {
				t.Errorf("next cycle processed frame %d, want 2", next.FrameSeq)
			}
		})
	}
}

func TestWorkerBoxClampedToFrame(t *testing.T) {
	det := &fakeDetector{
		detect: func(model.Frame) ([]model.Detection, error) {
			return []model.Detection{plate(20, 20, 50, 50)}, nil
		},
	}
	rec := &fakeRecognizer{}
	w := newTestWorker(det, rec)
	startWorker(t, w)

	snapshot := runCycle(t, w, testFrame(1, 32, 32), nil)
	if want := image.Rect(20, 20, 32, 32); !snapshot.HasDetection() || snapshot.Detection.Box != want {
		t.Fatalf("detection = %v, want box %v", snapshot.Detection, want)
	}
	if crop := rec.lastCrop(); crop.Width != 12 || crop.Height != 12 {
		t.Errorf("crop = %dx%d, want 12x12", crop.Width, crop.Height)
	}
}

func TestWorkerMissingCollaborators(t *testing.T) {
	if err := newTestWorker(nil, &fakeRecognizer{}).Start(context.Background()); !errors.Is(err, ErrNoDetector) {
		t.Errorf("Start() without detector = %v, want ErrNoDetector", err)
	}
	if err := newTestWorker(&fakeDetector{}, nil).Start(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("Start() without recognizer = %v, want ErrNoRecognizer", err)
	}
}

func TestWorkerIdempotentLifecycle(t *testing.T) {
	w := newTestWorker(&fakeDetector{}, &fakeRecognizer{})

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() on a fresh worker = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := w.Start(context.Background()); err != nil {
			t.Fatalf("Start() #%d error: %v", i+1, err)
		}
	}
	if !w.Running() {
		t.Fatal("worker not running after Start()")
	}

	for i := 0; i < 2; i++ {
		if err := w.Stop(); err != nil {
			t.Fatalf("Stop() #%d error: %v", i+1, err)
		}
	}
	if w.Running() {
		t.Fatal("worker running after Stop()")
	}

	// Restart after a clean stop
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() after restart error: %v", err)
	}
}

func TestWorkerIgnoresSubmitWhenStopped(t *testing.T) {
	det := &fakeDetector{}
	w := newTestWorker(det, &fakeRecognizer{})

	w.Submit(testFrame(1, 8, 8), nil)
	startWorker(t, w)
	time.Sleep(50 * time.Millisecond)

	if det.calls.Load() != 0 {
		t.Error("frame submitted before Start() was processed")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	w.Submit(testFrame(2, 8, 8), nil)
	if got := w.Stats().Submitted; got != 0 {
		t.Errorf("submitted = %d, want 0", got)
	}
}

func TestWorkerStopsWithParentContext(t *testing.T) {
	w := newTestWorker(&fakeDetector{}, &fakeRecognizer{})
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	cancel()
	waitFor(t, "the worker to stop", func() bool { return !w.Running() })
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() after parent cancellation = %v", err)
	}
}

func TestWorkerStopTimeout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	det := &fakeDetector{
		detect: func(model.Frame) ([]model.Detection, error) {
			close(entered)
			<-release
			return nil, nil
		},
	}
	w := NewWorker(det, &fakeRecognizer{}, WorkerOptions{
		PollInterval: 10 * time.Millisecond,
		StopTimeout:  30 * time.Millisecond,
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	w.Submit(testFrame(1, 8, 8), nil)
	<-entered

	start := time.Now()
	if err := w.Stop(); !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("Stop() = %v, want ErrStopTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() blocked for %v", elapsed)
	}

	if err := w.Start(context.Background()); !errors.Is(err, ErrStillRunning) {
		t.Fatalf("Start() while the old loop runs = %v, want ErrStillRunning", err)
	}

	close(release)
	waitFor(t, "the old loop to exit", func() bool { return w.Start(context.Background()) == nil })
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() after restart = %v", err)
	}
}

func TestWorkerStats(t *testing.T) {
	det := &fakeDetector{
		detect: func(model.Frame) ([]model.Detection, error) {
			return []model.Detection{plate(0, 0, 4, 4)}, nil
		},
	}
	w := newTestWorker(det, &fakeRecognizer{text: "12가3456"})
	startWorker(t, w)

	runCycle(t, w, testFrame(1, 8, 8), nil)
	runCycle(t, w, testFrame(2, 8, 8), nil)

	stats := w.Stats()
	if stats.ID == "" || stats.Source != "test" {
		t.Errorf("stats identity = %q/%q", stats.ID, stats.Source)
	}
	if stats.Cycles != 2 || stats.Recognized != 2 || stats.Submitted != 2 {
		t.Errorf("stats = %+v", stats)
	}
}
