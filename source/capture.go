// Package source produces frames for the framer.
package source

import (
	"log/slog"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/service/lgr"
	"github.com/khaledhikmat/alpr-go/vision"
)

// Capture reads from a webcam index, an RTSP/HTTP stream URL or a video file.
type Capture struct {
	name   string
	file   bool
	webcam *gocv.VideoCapture
	img    gocv.Mat
	seq    uint64
}

func NewCapture(src model.Source) (*Capture, error) {
	var device interface{} = src.URL
	if idx, err := strconv.Atoi(src.URL); err == nil {
		device = idx
	}

	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, xerrors.Errorf("capture %s: opening %s: %w", src.Name, src.URL, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, xerrors.Errorf("capture %s: %s is not open", src.Name, src.URL)
	}

	c := &Capture{
		name:   src.Name,
		file:   IsFile(src.URL),
		webcam: webcam,
		img:    gocv.NewMat(),
	}

	lgr.Logger.Info("capture opened",
		slog.String("source", src.Name),
		slog.String("url", src.URL),
		slog.Bool("file", c.file),
		slog.Float64("fps", c.FPS()),
	)
	return c, nil
}

// IsFile reports whether url names a video file rather than a device or stream.
func IsFile(url string) bool {
	if _, err := strconv.Atoi(url); err == nil {
		return false
	}
	return !strings.Contains(url, "://")
}

// Read returns the next frame. A video file that runs out of frames reports
// pipeline.ErrEndOfStream.
func (c *Capture) Read() (model.Frame, error) {
	if ok := c.webcam.Read(&c.img); !ok || c.img.Empty() {
		if c.file {
			return model.Frame{}, pipeline.ErrEndOfStream
		}
		return model.Frame{}, xerrors.Errorf("capture %s: read failed", c.name)
	}

	c.seq++
	return vision.FromMat(c.img, c.seq)
}

// FrameCount is the number of frames in a video file, 0 when unknown.
func (c *Capture) FrameCount() int {
	n := int(c.webcam.Get(gocv.VideoCaptureFrameCount))
	if n < 0 {
		return 0
	}
	return n
}

func (c *Capture) FPS() float64 {
	return c.webcam.Get(gocv.VideoCaptureFPS)
}

func (c *Capture) Close() error {
	c.img.Close() // Crucial to close the image to avoid memory leaks
	return c.webcam.Close()
}
