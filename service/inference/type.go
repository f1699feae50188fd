package inference

// IService decides which captured frames are worth sending to the pipeline worker.
type IService interface {
	CanSkipFrame(frames int) bool
}
