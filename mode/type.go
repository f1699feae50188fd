package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/service/data"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.WorkerStats:
		procWorkerStats(datasvc, stats)
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procWorkerStats(datasvc data.IService, stats model.WorkerStats) {
	lgr.Logger.Info(
		"worker stats",
		slog.Uint64("cycles", stats.Cycles),
		slog.Uint64("recognized", stats.Recognized),
		slog.Uint64("dropped", stats.Dropped),
		slog.Uint64("failures", stats.Failures),
		slog.Float64("avgProcTime", stats.AvgProcTime),
	)

	err := datasvc.NewWorkerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store worker stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	lgr.Logger.Error(
		"pipeline error",
		slog.Any("error", err),
	)

	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
