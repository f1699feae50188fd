package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

// run drives one pipeline until the context is cancelled or the source is done: the worker
// consumes sampled frames while the framer feeds it and the readers.
func run(canxCtx context.Context, svcs pipeline.ServicesFactory, name string, src pipeline.Source, det pipeline.Detector, rec pipeline.Recognizer, readers ...pipeline.Reader) error {
	// Create error and stats streams
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	opts := pipeline.WorkerOptionsFromConfig(svcs.CfgSvc)
	worker := pipeline.NewWorker(det, rec, opts)
	if err := worker.Start(canxCtx); err != nil {
		return model.GenError(name,
			err,
			map[string]interface{}{},
			"error starting pipeline worker")
	}

	framer := pipeline.NewFramer(name+"Framer", svcs, src, worker, svcs.CfgSvc.GetSource().ROI, readers...)

	framerCtx, framerCanxFn := context.WithCancel(canxCtx)
	defer framerCanxFn()

	framerResult := make(chan error, 1)
	go func() {
		framerResult <- framer.Run(framerCtx, errorStream, statsStream)
	}()

	framerDone := false
	statsPeriod := time.Duration(svcs.CfgSvc.GetWorkerStatsPeriodicTimeout()) * time.Second

	// Wait for cancellation, framer exit, stats or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"mode processor context cancelled",
				slog.String("mode", name),
			)
			goto resume

		case err := <-framerResult:
			framerDone = true
			if err != nil {
				lgr.Logger.Info(
					"framer exited",
					slog.String("mode", name),
					slog.Any("error", err),
				)
			}
			goto resume

		case <-time.After(statsPeriod):
			procStats(svcs.DataSvc, worker.Stats())

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

resume:
	framerCanxFn()

	if err := worker.Stop(); err != nil {
		procError(svcs.DataSvc, model.GenError(name,
			err,
			map[string]interface{}{},
			"error stopping pipeline worker"))
	}
	procStats(svcs.DataSvc, worker.Stats())

	if framerDone {
		return nil
	}

	lgr.Logger.Info(
		"mode processor is waiting for the framer to exit",
		slog.String("mode", name),
	)

	// Wait in a non-blocking way for the framer, which may still need to report stats or
	// errors as it is exiting
	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"mode processor shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)
			return nil

		case <-framerResult:
			return nil

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
