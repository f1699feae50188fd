package model

import (
	"fmt"

	goxerrors "github.com/mdobak/go-xerrors"
	"golang.org/x/xerrors"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	message := fmt.Sprintf(messagef, args...)
	if err == nil {
		err = xerrors.New(message)
	}

	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    message,
		StackTrace: goxerrors.Sprint(goxerrors.New(err)),
		Misc:       misc,
	}
}

type Source struct {
	Name        string `json:"name"`
	URL         string `json:"url"`  // Webcam index, RTSP URL or video file path
	Type        string `json:"type"` // capture or random
	ROI         *ROI   `json:"roi,omitempty"`
	SubmitEvery int    `json:"submitEvery"`
}

type WorkerStats struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Submitted   uint64  `json:"submitted"`
	Dropped     uint64  `json:"dropped"` // Overwritten in the slot before the worker took them
	Cycles      uint64  `json:"cycles"`
	Empty       uint64  `json:"empty"`
	Recognized  uint64  `json:"recognized"`
	Failures    uint64  `json:"failures"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type FramerStats struct {
	Name          string `json:"name"`
	Source        string `json:"source"`
	FPS           int    `json:"fps"`
	Frames        int    `json:"frames"`
	SkippedFrames int    `json:"skippedFrames"`
	Submitted     int    `json:"submitted"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}
