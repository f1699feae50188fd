package mode

import (
	"context"
	"os"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/render"
)

// Live recognizes plates from a webcam or network stream until cancelled.
func Live(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	collabs, err := newCollaborators(svcs.CfgSvc)
	if err != nil {
		return model.GenError("live", err, map[string]interface{}{}, "error loading models")
	}
	defer collabs.Close()

	src, err := openSource(svcs.CfgSvc)
	if err != nil {
		return model.GenError("live", err, map[string]interface{}{}, "error opening source")
	}
	defer src.Close()

	overlay, err := render.NewOverlay(svcs.CfgSvc.GetOutputFolder())
	if err != nil {
		return err
	}
	console := render.NewConsole(os.Stdout, svcs.CfgSvc.GetConsoleRefreshPeriod())

	return run(canxCtx, svcs, "live", src, collabs.detector, collabs.recognizer, console.Read, overlay.Read)
}
