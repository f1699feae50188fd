package pipeline

import (
	"image"

	"github.com/khaledhikmat/alpr-go/model"
)

// restrict returns the part of the frame the detector should see and the offset of that part
// in frame coordinates. A nil ROI means the whole frame, without copying. An ROI that sticks
// out of the frame is clamped; false means nothing is left.
func restrict(frame model.Frame, roi *model.ROI) (model.Frame, image.Point, bool) {
	if roi == nil {
		return frame, image.Point{}, !frame.Empty()
	}

	r := roi.Rect().Intersect(frame.Bounds())
	sub, ok := frame.Crop(r)
	if !ok {
		return model.Frame{}, image.Point{}, false
	}
	return sub, r.Min, true
}

func filterClass(detections []model.Detection, classID int) []model.Detection {
	plates := make([]model.Detection, 0, len(detections))
	for _, d := range detections {
		if d.ClassID == classID {
			plates = append(plates, d)
		}
	}
	return plates
}

// largest returns the index of the detection with the biggest box area, the earliest one on
// ties. Boxes smaller than minArea are not eligible. It returns -1 when nothing qualifies.
func largest(detections []model.Detection, minArea int) int {
	best := -1
	bestArea := 0
	for i, d := range detections {
		area := d.Area()
		if area < minArea {
			continue
		}
		if best == -1 || area > bestArea {
			best = i
			bestArea = area
		}
	}
	return best
}

func translate(d model.Detection, offset image.Point) model.Detection {
	d.Box = d.Box.Canon().Add(offset)
	return d
}
