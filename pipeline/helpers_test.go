package pipeline

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
)

func testFrame(seq uint64, width, height int) model.Frame {
	f := model.NewFrame(width, height, model.PixelFormatBGR)
	f.Seq = seq
	return f
}

func plate(x1, y1, x2, y2 int) model.Detection {
	return model.Detection{Box: image.Rect(x1, y1, x2, y2), Confidence: 0.9, ClassID: 0}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type fakeDetector struct {
	mu     sync.Mutex
	calls  atomic.Int32
	frames []model.Frame
	detect func(frame model.Frame) ([]model.Detection, error)
}

func (d *fakeDetector) Detect(_ context.Context, frame model.Frame) ([]model.Detection, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	d.mu.Unlock()
	if d.detect == nil {
		return nil, nil
	}
	return d.detect(frame)
}

func (d *fakeDetector) seen() []model.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Frame(nil), d.frames...)
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls atomic.Int32
	crops []model.Frame
	text  string
	err   error
}

func (r *fakeRecognizer) Recognize(_ context.Context, crop model.Frame) (string, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.crops = append(r.crops, crop)
	r.mu.Unlock()
	return r.text, r.err
}

func (r *fakeRecognizer) lastCrop() model.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.crops) == 0 {
		return model.Frame{}
	}
	return r.crops[len(r.crops)-1]
}
