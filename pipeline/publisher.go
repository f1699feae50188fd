package pipeline

import (
	"sync/atomic"

	"github.com/khaledhikmat/alpr-go/model"
)

// Publisher holds the latest snapshot. The worker is the only writer; any number of
// goroutines may read. A snapshot is swapped in as a whole, so readers never see the
// detection of one cycle next to the text of another.
type Publisher struct {
	current atomic.Pointer[model.Snapshot]
}

func NewPublisher() *Publisher {
	p := &Publisher{}
	p.current.Store(&model.Snapshot{})
	return p
}

func (p *Publisher) Publish(snapshot model.Snapshot) {
	snapshot.Detection = cloneDetection(snapshot.Detection)
	p.current.Store(&snapshot)
}

// Read returns a copy of the latest snapshot, or the empty snapshot if nothing was published.
func (p *Publisher) Read() model.Snapshot {
	snapshot := *p.current.Load()
	snapshot.Detection = cloneDetection(snapshot.Detection)
	return snapshot
}

func cloneDetection(d *model.Detection) *model.Detection {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
