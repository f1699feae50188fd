package model

import (
	"image"
	"testing"
)

func TestParseROI(t *testing.T) {
	testCases := []struct {
		input   string
		want    *ROI
		wantErr bool
	}{
		{"", nil, false},
		{"50,50,150,150", &ROI{50, 50, 150, 150}, false},
		{" 1, 2 ,3,4 ", &ROI{1, 2, 3, 4}, false},
		{"1,2,3", nil, true},
		{"a,2,3,4", nil, true},
		{"10,10,5,20", nil, true},
		{"-1,0,5,5", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseROI(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseROI(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if tc.want == nil {
				if got != nil {
					t.Errorf("ParseROI(%q) = %v, want nil", tc.input, got)
				}
				return
			}
			if got == nil || *got != *tc.want {
				t.Errorf("ParseROI(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestROIRectIsInclusive(t *testing.T) {
	roi := ROI{X1: 50, Y1: 50, X2: 150, Y2: 150}
	if got := roi.Rect(); got != image.Rect(50, 50, 151, 151) {
		t.Errorf("Rect() = %v, want (50,50)-(151,151)", got)
	}
	if !roi.Valid(151, 151) {
		t.Error("roi should be valid in a 151x151 frame")
	}
	if roi.Valid(150, 151) {
		t.Error("roi should not be valid when x2 == width")
	}
	if full := FullFrameROI(640, 480); full.Rect() != image.Rect(0, 0, 640, 480) {
		t.Errorf("FullFrameROI rect = %v", full.Rect())
	}
}

func TestDetectionArea(t *testing.T) {
	d := Detection{Box: image.Rectangle{Min: image.Pt(30, 30), Max: image.Pt(10, 10)}}
	if d.Area() != 400 {
		t.Errorf("Area() = %d, want 400", d.Area())
	}
}

func TestGenErrorKeepsInner(t *testing.T) {
	inner := roiParseError()
	e := GenError("framer", inner, nil, "reading source %s", "cam0")
	if e.Message != "reading source cam0" {
		t.Errorf("Message = %q", e.Message)
	}
	if e.Inner != inner {
		t.Error("Inner error not kept")
	}
	if e.StackTrace == "" {
		t.Error("StackTrace is empty")
	}
}

func roiParseError() error {
	_, err := ParseROI("x")
	return err
}
