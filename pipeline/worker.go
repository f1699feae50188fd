package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

var (
	ErrNoDetector   = xerrors.New("pipeline worker: no detector")
	ErrNoRecognizer = xerrors.New("pipeline worker: no recognizer")
	ErrStillRunning = xerrors.New("pipeline worker: previous run loop has not exited yet")
	ErrStopTimeout  = xerrors.New("pipeline worker: run loop did not exit before the stop timeout")
)

const tracerName = "github.com/khaledhikmat/alpr-go/pipeline"

type WorkerOptions struct {
	Source       string
	PollInterval time.Duration // Bounded wait per loop iteration
	StopTimeout  time.Duration // Bounded join in Stop
	PlateClassID int
	MinBoxArea   int
	Tracer       trace.Tracer
}

func WorkerOptionsFromConfig(cfgSvc config.IService) WorkerOptions {
	return WorkerOptions{
		Source:       cfgSvc.GetSource().Name,
		PollInterval: cfgSvc.GetWorkerPollInterval(),
		StopTimeout:  cfgSvc.GetWorkerStopTimeout(),
		PlateClassID: cfgSvc.GetDetectorParameters().PlateClassID,
		MinBoxArea:   cfgSvc.GetMinBoxArea(),
		Tracer:       otel.Tracer(tracerName),
	}
}

// Worker drains a Slot, runs the detector and recognizer on each taken frame and publishes
// one snapshot per cycle.
type Worker struct {
	id         string
	detector   Detector
	recognizer Recognizer
	opts       WorkerOptions
	slot       *Slot
	pub        *Publisher

	mu      sync.Mutex // Guards lifecycle fields below
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	cycles     atomic.Uint64
	empty      atomic.Uint64
	recognized atomic.Uint64
	failures   atomic.Uint64
	procNanos  atomic.Int64
}

func NewWorker(detector Detector, recognizer Recognizer, opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = time.Second
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	return &Worker{
		id:         uuid.NewString(),
		detector:   detector,
		recognizer: recognizer,
		opts:       opts,
		slot:       NewSlot(),
		pub:        NewPublisher(),
	}
}

func (w *Worker) ID() string {
	return w.id
}

func (w *Worker) Running() bool {
	return w.running.Load()
}

// Start spawns the run loop. Calling it on a running worker does nothing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.detector == nil {
		return ErrNoDetector
	}
	if w.recognizer == nil {
		return ErrNoRecognizer
	}

	if w.running.Load() {
		return nil
	}

	// A loop abandoned by a timed out Stop may still be processing its last frame
	if w.done != nil {
		select {
		case <-w.done:
		default:
			return ErrStillRunning
		}
	}

	// Anything submitted while stopped is stale
	w.slot.Drain()

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = time.Now()
	w.running.Store(true)

	lgr.Logger.Info(
		"pipeline worker starting...",
		slog.String("worker", w.id),
		slog.String("source", w.opts.Source),
		slog.Duration("pollInterval", w.opts.PollInterval),
	)

	go w.run(loopCtx, w.done)
	return nil
}

// Stop asks the run loop to exit and waits for it up to the stop timeout. When the timeout
// expires Stop returns ErrStopTimeout; the loop may still be finishing its current frame.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return nil
	}

	w.running.Store(false)
	w.cancel()
	w.cancel = nil
	w.slot.Drain()

	timer := time.NewTimer(w.opts.StopTimeout)
	defer timer.Stop()

	select {
	case <-w.done:
		lgr.Logger.Info(
			"pipeline worker stopped",
			slog.String("worker", w.id),
		)
		return nil
	case <-timer.C:
		lgr.Logger.Warn(
			"pipeline worker did not stop in time",
			slog.String("worker", w.id),
			slog.Duration("timeout", w.opts.StopTimeout),
		)
		return ErrStopTimeout
	}
}

// Submit hands a frame to the worker without blocking. A frame still waiting from an earlier
// Submit is dropped. The worker owns the frame from here on; callers that keep using their
// buffer must submit a clone. Ignored unless the worker is running.
func (w *Worker) Submit(frame model.Frame, roi *model.ROI) {
	if !w.running.Load() {
		return
	}
	w.slot.Submit(Submission{Frame: frame, ROI: roi})
}

// Latest returns the most recently published snapshot.
func (w *Worker) Latest() model.Snapshot {
	return w.pub.Read()
}

func (w *Worker) Stats() model.WorkerStats {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	cycles := w.cycles.Load()
	var avgProcTime float64
	if cycles > 0 {
		avgProcTime = time.Duration(w.procNanos.Load()).Seconds() / float64(cycles)
	}

	var uptime int64
	if !started.IsZero() {
		uptime = int64(time.Since(started).Seconds())
	}

	return model.WorkerStats{
		ID:          w.id,
		Source:      w.opts.Source,
		Submitted:   w.slot.Submits(),
		Dropped:     w.slot.Drops(),
		Cycles:      cycles,
		Empty:       w.empty.Load(),
		Recognized:  w.recognized.Load(),
		Failures:    w.failures.Load(),
		Uptime:      uptime,
		AvgProcTime: avgProcTime,
		Timestamp:   time.Now().Unix(),
	}
}

func (w *Worker) run(canxCtx context.Context, done chan struct{}) {
	defer close(done)
	defer w.running.Store(false)

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"pipeline worker context cancelled",
				slog.String("worker", w.id),
			)
			return
		default:
		}

		sub, ok := w.slot.Take(canxCtx, w.opts.PollInterval)
		if !ok {
			continue
		}

		start := time.Now()
		snapshot := w.process(canxCtx, sub)
		w.procNanos.Add(int64(time.Since(start)))

		snapshot.Cycle = w.cycles.Add(1)
		snapshot.Timestamp = time.Now()
		if !snapshot.HasDetection() {
			w.empty.Add(1)
		}
		if snapshot.HasText() {
			w.recognized.Add(1)
		}

		w.pub.Publish(snapshot)
	}
}

// process runs one detection cycle. Collaborator errors and panics degrade the affected
// field to none; they never escape.
func (w *Worker) process(ctx context.Context, sub Submission) (snapshot model.Snapshot) {
	snapshot.FrameSeq = sub.Frame.Seq

	ctx, span := w.opts.Tracer.Start(ctx, "alpr.cycle", trace.WithAttributes(
		attribute.Int64("frame.seq", int64(sub.Frame.Seq)),
		attribute.Bool("frame.roi", sub.ROI != nil),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			w.failures.Add(1)
			span.SetStatus(codes.Error, "recovered from panic")
			lgr.Logger.Error(
				"pipeline worker recovered from panic",
				slog.String("worker", w.id),
				slog.Uint64("frameSeq", sub.Frame.Seq),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()

	if sub.Frame.Empty() {
		w.failures.Add(1)
		lgr.Logger.Debug("skipping empty frame", slog.Uint64("frameSeq", sub.Frame.Seq))
		return snapshot
	}

	area, offset, ok := restrict(sub.Frame, sub.ROI)
	if !ok {
		lgr.Logger.Debug(
			"roi does not overlap the frame",
			slog.Uint64("frameSeq", sub.Frame.Seq),
			slog.Any("roi", sub.ROI),
		)
		return snapshot
	}

	detections, err := w.detect(ctx, area)
	if err != nil {
		w.failures.Add(1)
		span.RecordError(err)
		lgr.Logger.Debug(
			"detector failed",
			slog.Uint64("frameSeq", sub.Frame.Seq),
			slog.Any("error", err),
		)
		return snapshot
	}

	plates := filterClass(detections, w.opts.PlateClassID)
	i := largest(plates, w.opts.MinBoxArea)
	span.SetAttributes(attribute.Int("detections", len(plates)))
	if i < 0 {
		return snapshot
	}

	best := translate(plates[i], offset)
	best.Box = best.Box.Intersect(sub.Frame.Bounds())
	crop, ok := sub.Frame.Crop(best.Box)
	if !ok {
		// Degenerate box: nothing to read
		return snapshot
	}
	snapshot.Detection = &best

	text, err := w.recognize(ctx, crop)
	if err != nil {
		w.failures.Add(1)
		span.RecordError(err)
		lgr.Logger.Debug(
			"recognizer failed",
			slog.Uint64("frameSeq", sub.Frame.Seq),
			slog.Any("error", err),
		)
		return snapshot
	}

	snapshot.Text = text
	span.SetAttributes(attribute.Bool("recognized", text != ""))
	return snapshot
}

func (w *Worker) detect(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	ctx, span := w.opts.Tracer.Start(ctx, "alpr.detect")
	defer span.End()
	return w.detector.Detect(ctx, frame)
}

func (w *Worker) recognize(ctx context.Context, crop model.Frame) (string, error) {
	ctx, span := w.opts.Tracer.Start(ctx, "alpr.recognize")
	defer span.End()
	return w.recognizer.Recognize(ctx, crop)
}
