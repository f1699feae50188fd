package yolo

import (
	"image"
	"math"

	"github.com/khaledhikmat/alpr-go/model"
)

// decodeRow turns one YOLOv5 output row (cx, cy, w, h, objectness, class scores...) into a
// detection. Box values are in network input pixels and are scaled by sx, sy into frame
// pixels. Rows below threshold are rejected.
func decodeRow(data []float32, sx, sy float32, threshold float32) (model.Detection, bool) {
	if len(data) < 5 {
		return model.Detection{}, false
	}

	objectness := data[4]
	classID := 0
	classScore := float32(1)
	if scores := data[5:]; len(scores) > 0 {
		classScore = scores[0]
		for j, s := range scores {
			if s > classScore {
				classScore = s
				classID = j
			}
		}
	}

	confidence := objectness * classScore
	if confidence < threshold || math.IsNaN(float64(confidence)) {
		return model.Detection{}, false
	}

	cx, cy, w, h := data[0]*sx, data[1]*sy, data[2]*sx, data[3]*sy
	x1 := int(math.Round(float64(cx - w/2)))
	y1 := int(math.Round(float64(cy - h/2)))
	x2 := int(math.Round(float64(cx + w/2)))
	y2 := int(math.Round(float64(cy + h/2)))

	return model.Detection{
		Box:        image.Rect(x1, y1, x2, y2),
		Confidence: confidence,
		ClassID:    classID,
	}, true
}
