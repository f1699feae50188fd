package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/lgr"
	"github.com/khaledhikmat/alpr-go/vision"
)

const OverlayFile = "latest.jpg"

var boxColor = color.RGBA{0, 255, 0, 0}

// Overlay draws the latest detection on the frame and overwrites a single image file each
// time a new cycle is published.
type Overlay struct {
	path string

	mu        sync.Mutex
	lastCycle uint64
}

func NewOverlay(folder string) (*Overlay, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, xerrors.Errorf("overlay: creating %s: %w", folder, err)
	}
	return &Overlay{
		path: filepath.Join(folder, OverlayFile),
	}, nil
}

func (o *Overlay) Read(frame model.Frame, snapshot model.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if snapshot.Cycle == 0 || snapshot.Cycle == o.lastCycle {
		return
	}
	o.lastCycle = snapshot.Cycle

	img, err := vision.ToBGR(frame)
	if err != nil {
		lgr.Logger.Debug("overlay skipped frame", slog.Any("error", err))
		return
	}
	defer img.Close()

	if d := snapshot.Detection; d != nil {
		gocv.Rectangle(&img, d.Box, boxColor, 2)
		label := fmt.Sprintf("%.2f", d.Confidence)
		gocv.PutText(&img, label, image.Pt(d.Box.Min.X, d.Box.Min.Y-10), gocv.FontHersheySimplex, 0.5, boxColor, 2)
	}

	if snapshot.HasText() {
		gocv.PutText(&img, snapshot.Text, image.Pt(10, 30), gocv.FontHersheySimplex, 1, boxColor, 2)
	}

	if ok := gocv.IMWrite(o.path, img); !ok {
		lgr.Logger.Warn("overlay write failed", slog.String("path", o.path))
	}
}
