package source

import (
	"math/rand"
	"time"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
)

// Random produces noise frames. It stands in for a camera when exercising the pipeline
// without hardware.
type Random struct {
	width    int
	height   int
	frames   int // 0 means endless
	interval time.Duration
	rnd      *rand.Rand
	seq      uint64
}

func NewRandom(width, height, frames int, fps int) *Random {
	var interval time.Duration
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}

	return &Random{
		width:    width,
		height:   height,
		frames:   frames,
		interval: interval,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Random) Read() (model.Frame, error) {
	if r.frames > 0 && int(r.seq) >= r.frames {
		return model.Frame{}, pipeline.ErrEndOfStream
	}
	if r.interval > 0 {
		time.Sleep(r.interval)
	}

	r.seq++
	frame := model.NewFrame(r.width, r.height, model.PixelFormatBGR)
	frame.Seq = r.seq
	_, _ = r.rnd.Read(frame.Pix)
	return frame, nil
}

func (r *Random) FrameCount() int {
	return r.frames
}

func (r *Random) Close() error {
	return nil
}
