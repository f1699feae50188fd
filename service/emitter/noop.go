package emitter

import (
	"log/slog"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

type noopService struct {
}

// NewNoop returns an emitter that only logs what it would have published.
func NewNoop() IService {
	return &noopService{}
}

func (svc *noopService) Emit(snapshot model.Snapshot) error {
	lgr.Logger.Debug(
		"noop emitter",
		slog.Uint64("cycle", snapshot.Cycle),
		slog.String("plate", snapshot.Text),
	)
	return nil
}

func (svc *noopService) Close() error {
	return nil
}
