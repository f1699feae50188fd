package emitter

import (
	"encoding/json"

	"github.com/khaledhikmat/alpr-go/model"
)

// Payload is the JSON document published for a recognized plate. The box corners are in
// frame coordinates with max exclusive.
type Payload struct {
	Source     string  `json:"source"`
	Cycle      uint64  `json:"cycle"`
	FrameSeq   uint64  `json:"frameSeq"`
	Plate      string  `json:"plate"`
	Confidence float32 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Timestamp  int64   `json:"timestamp"`
}

func NewPayload(source string, snapshot model.Snapshot) Payload {
	p := Payload{
		Source:    source,
		Cycle:     snapshot.Cycle,
		FrameSeq:  snapshot.FrameSeq,
		Plate:     snapshot.Text,
		Timestamp: snapshot.Timestamp.UnixMilli(),
	}

	if snapshot.Detection != nil {
		b := snapshot.Detection.Box.Canon()
		p.Confidence = snapshot.Detection.Confidence
		p.X1, p.Y1, p.X2, p.Y2 = b.Min.X, b.Min.Y, b.Max.X, b.Max.Y
	}

	return p
}

func (p Payload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
