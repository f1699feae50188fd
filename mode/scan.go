package mode

import (
	"context"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/render"
	"github.com/khaledhikmat/alpr-go/source"
)

// Scan recognizes plates in a video file and returns when the file is exhausted.
func Scan(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	src := svcs.CfgSvc.GetSource()
	if !source.IsFile(src.URL) {
		return xerrors.Errorf("scan needs a video file, got %q", src.URL)
	}

	collabs, err := newCollaborators(svcs.CfgSvc)
	if err != nil {
		return model.GenError("scan", err, map[string]interface{}{}, "error loading models")
	}
	defer collabs.Close()

	capture, err := source.NewCapture(src)
	if err != nil {
		return model.GenError("scan", err, map[string]interface{}{}, "error opening video: %s", src.URL)
	}
	defer capture.Close()

	bar := newProgressBar(capture.FrameCount(), src.Name)
	progress := func(model.Frame, model.Snapshot) {
		_ = bar.Add(1) // Update progress bar for every frame read
	}

	console := render.NewConsole(os.Stdout, svcs.CfgSvc.GetConsoleRefreshPeriod())

	err = run(canxCtx, svcs, "scan", capture, collabs.detector, collabs.recognizer, progress, console.Read)
	_ = bar.Finish()
	return err
}

func newProgressBar(total int, name string) *progressbar.ProgressBar {
	if total <= 0 {
		// Unknown length
		total = -1
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("scanning "+name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}
