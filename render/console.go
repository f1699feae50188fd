// Package render holds snapshot readers that show the pipeline output.
package render

import (
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/khaledhikmat/alpr-go/model"
)

// Console prints plates as they are recognized. Repeats of the same plate are printed at
// most once per period.
type Console struct {
	out    io.Writer
	period time.Duration

	mu        sync.Mutex
	lastCycle uint64
	lastText  string
	lastPrint time.Time

	plate *color.Color
	info  *color.Color
}

func NewConsole(out io.Writer, period time.Duration) *Console {
	return &Console{
		out:    out,
		period: period,
		plate:  color.New(color.FgGreen, color.Bold),
		info:   color.New(color.FgHiBlack),
	}
}

func (c *Console) Read(_ model.Frame, snapshot model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snapshot.Cycle == 0 || snapshot.Cycle == c.lastCycle {
		return
	}
	c.lastCycle = snapshot.Cycle

	if !snapshot.HasText() {
		return
	}
	if snapshot.Text == c.lastText && time.Since(c.lastPrint) < c.period {
		return
	}

	c.lastText = snapshot.Text
	c.lastPrint = time.Now()

	c.info.Fprintf(c.out, "[%s] ", snapshot.Timestamp.Format("15:04:05"))
	c.plate.Fprint(c.out, snapshot.Text)
	if snapshot.Detection != nil {
		b := snapshot.Detection.Box
		c.info.Fprintf(c.out, "  conf=%.2f box=(%d,%d,%d,%d)", snapshot.Detection.Confidence, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	}
	c.info.Fprintln(c.out)
}
