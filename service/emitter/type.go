package emitter

import "github.com/khaledhikmat/alpr-go/model"

type IService interface {
	Emit(snapshot model.Snapshot) error
	Close() error
}
