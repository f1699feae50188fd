package inference

type everyNService struct {
	n int
}

// NewEveryN lets every nth frame through (frames are counted from 1). n <= 1 lets every
// frame through.
func NewEveryN(n int) IService {
	if n < 1 {
		n = 1
	}
	return &everyNService{
		n: n,
	}
}

func (svc *everyNService) CanSkipFrame(frames int) bool {
	return frames%svc.n != 0
}
