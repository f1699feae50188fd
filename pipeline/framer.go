package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

const (
	maxConsecutiveReadErrors = 50
	readErrorBackoff         = 20 * time.Millisecond
	statsSendTimeout         = time.Second
)

// Framer is the producer side of the pipeline: it reads frames from a source, hands every
// Nth one to the worker and shows every frame to the readers together with the latest
// snapshot.
type Framer struct {
	Name    string
	svcs    ServicesFactory
	source  Source
	worker  *Worker
	roi     *model.ROI
	readers []Reader
}

func NewFramer(name string, svcs ServicesFactory, source Source, worker *Worker, roi *model.ROI, readers ...Reader) *Framer {
	return &Framer{
		Name:    name,
		svcs:    svcs,
		source:  source,
		worker:  worker,
		roi:     roi,
		readers: readers,
	}
}

// Run loops until the context is cancelled or the source is exhausted. Read failures are
// retried; too many in a row end the run with an error routed to errorStream.
func (f *Framer) Run(canxCtx context.Context, errorStream chan interface{}, statsStream chan interface{}) error {
	var startTime = time.Now()
	var frames = 0
	var skippedFrames = 0
	var submitted = 0
	var errs = 0
	var consecutiveErrs = 0
	var lastEmitted uint64

	defer func() {
		uptime := time.Since(startTime)
		fps := 0
		if uptime.Seconds() > 0 {
			fps = int(float64(frames) / uptime.Seconds())
		}

		stats := model.FramerStats{
			Name:          f.Name,
			Source:        f.sourceName(),
			FPS:           fps,
			Frames:        frames,
			SkippedFrames: skippedFrames,
			Submitted:     submitted,
			Errors:        errs,
			Uptime:        int64(uptime.Seconds()),
		}

		// The mode processor may already be past its shutdown window
		select {
		case statsStream <- stats:
		case <-time.After(statsSendTimeout):
			lgr.Logger.Warn("framer stats dropped", slog.String("framer", f.Name))
		}
	}()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"framer context cancelled",
				slog.String("framer", f.Name),
			)
			return nil
		default:
		}

		frame, err := f.source.Read()
		if errors.Is(err, ErrEndOfStream) {
			lgr.Logger.Info(
				"framer reached end of stream",
				slog.String("framer", f.Name),
				slog.Int("frames", frames),
			)
			return nil
		}
		if err != nil || frame.Empty() {
			errs++
			consecutiveErrs++
			if consecutiveErrs >= maxConsecutiveReadErrors {
				genErr := model.GenError("framer",
					err,
					map[string]interface{}{
						"framer": f.Name,
						"errors": consecutiveErrs,
					},
					"too many consecutive read errors from source: %s", f.sourceName())
				f.report(canxCtx, errorStream, genErr)
				return genErr
			}
			time.Sleep(readErrorBackoff)
			continue
		}
		consecutiveErrs = 0

		frames++
		frame.Seq = uint64(frames)

		if !f.svcs.InferenceSvc.CanSkipFrame(frames) {
			// The readers below keep using this frame
			f.worker.Submit(frame.Clone(), f.roi)
			submitted++
		} else {
			skippedFrames++
		}

		snapshot := f.worker.Latest()
		if snapshot.Cycle != lastEmitted && snapshot.HasText() && f.svcs.EmitterSvc != nil {
			lastEmitted = snapshot.Cycle
			if err := f.svcs.EmitterSvc.Emit(snapshot); err != nil {
				lgr.Logger.Debug(
					"failed to emit snapshot",
					slog.Uint64("cycle", snapshot.Cycle),
					slog.Any("error", err),
				)
			}
		}

		for _, reader := range f.readers {
			reader(frame, snapshot)
		}
	}
}

func (f *Framer) report(canxCtx context.Context, errorStream chan interface{}, err model.CustomError) {
	// WARNING: The mode processor stops reading errors after its shutdown window
	select {
	case errorStream <- err:
	case <-canxCtx.Done():
	case <-time.After(statsSendTimeout):
	}
}

func (f *Framer) sourceName() string {
	if f.svcs.CfgSvc == nil {
		return ""
	}
	return f.svcs.CfgSvc.GetSource().Name
}
