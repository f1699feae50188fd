package model

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// ROI is a region of interest with inclusive corners in frame coordinates.
type ROI struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

func FullFrameROI(width, height int) ROI {
	return ROI{X1: 0, Y1: 0, X2: width - 1, Y2: height - 1}
}

// Rect returns the ROI as a max-exclusive rectangle.
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2+1, r.Y2+1)
}

func (r ROI) Valid(width, height int) bool {
	return r.X1 >= 0 && r.X1 <= r.X2 && r.X2 < width &&
		r.Y1 >= 0 && r.Y1 <= r.Y2 && r.Y2 < height
}

func (r ROI) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X1, r.Y1, r.X2, r.Y2)
}

// ParseROI parses "x1,y1,x2,y2". An empty string means no ROI.
func ParseROI(s string) (*ROI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, xerrors.Errorf("roi %q: expected x1,y1,x2,y2", s)
	}

	vals := [4]int{}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, xerrors.Errorf("roi %q: %w", s, err)
		}
		vals[i] = v
	}

	roi := ROI{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}
	if roi.X1 < 0 || roi.Y1 < 0 || roi.X1 > roi.X2 || roi.Y1 > roi.Y2 {
		return nil, xerrors.Errorf("roi %q: corners out of order", s)
	}
	return &roi, nil
}

type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float32         `json:"confidence"`
	ClassID    int             `json:"classId"`
	Label      string          `json:"label,omitempty"`
}

func (d Detection) Area() int {
	b := d.Box.Canon()
	return b.Dx() * b.Dy()
}

// Snapshot is the published result of one pipeline cycle.
// Detection is nil and Text is empty when nothing was found.
type Snapshot struct {
	Cycle     uint64     `json:"cycle"`
	FrameSeq  uint64     `json:"frameSeq"`
	Detection *Detection `json:"detection,omitempty"`
	Text      string     `json:"text,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func (s Snapshot) HasDetection() bool {
	return s.Detection != nil
}

func (s Snapshot) HasText() bool {
	return s.Text != ""
}
