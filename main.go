package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/mode"
	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/pipeline"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/data"
	"github.com/khaledhikmat/alpr-go/service/emitter"
	"github.com/khaledhikmat/alpr-go/service/inference"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"live": mode.Live,
	"scan": mode.Scan,
}

var modeDescriptions = map[string]string{
	"live": "Recognize plates from a webcam or RTSP stream",
	"scan": "Recognize plates in a video file",
}

type cliOptions struct {
	configPath string
	source     string
	roi        string
	every      int
	recognizer string
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	if err := newRootCmd().ExecuteContext(canxCtx); err != nil {
		lgr.Logger.Error("alpr exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:          "alpr",
		Short:        "Automatic license plate recognition",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (default: built-in settings)")
	rootCmd.PersistentFlags().StringVarP(&opts.source, "source", "s", "", "Webcam index, RTSP URL or video file")
	rootCmd.PersistentFlags().StringVar(&opts.roi, "roi", "", "Region of interest x1,y1,x2,y2 (inclusive)")
	rootCmd.PersistentFlags().IntVarP(&opts.every, "every", "n", 0, "Submit every Nth frame to the recognizer")
	rootCmd.PersistentFlags().StringVarP(&opts.recognizer, "recognizer", "r", "", "Recognizer: tesseract or ctc")

	for modeType := range modeProcessors {
		rootCmd.AddCommand(&cobra.Command{
			Use:   modeType,
			Short: modeDescriptions[modeType],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfgSvc, err := newConfig(opts)
				if err != nil {
					return err
				}
				return runMode(cmd.Context(), modeType, cfgSvc)
			},
		})
	}

	return rootCmd
}

func newConfig(opts *cliOptions) (config.IService, error) {
	cfgSvc := config.NewHardCoded()
	if opts.configPath != "" {
		var err error
		cfgSvc, err = config.NewYaml(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	roi, err := model.ParseROI(opts.roi)
	if err != nil {
		return nil, err
	}

	if opts.every < 0 {
		return nil, xerrors.Errorf("--every must be positive, got %d", opts.every)
	}

	return config.WithOverrides(cfgSvc, config.Overrides{
		SourceURL:   opts.source,
		ROI:         roi,
		SubmitEvery: opts.every,
		Recognizer:  opts.recognizer,
	}), nil
}

func newEmitter(cfgSvc config.IService) emitter.IService {
	if cfgSvc.GetEmitterParameters().Broker == "" {
		return emitter.NewNoop()
	}

	emitterSvc, err := emitter.NewMQTT(cfgSvc)
	if err != nil {
		lgr.Logger.Warn(
			"mqtt emitter unavailable, plates will not be published",
			slog.Any("error", err),
		)
		return emitter.NewNoop()
	}
	return emitterSvc
}

func runMode(canxCtx context.Context, modeType string, cfgSvc config.IService) error {
	modeProc, ok := modeProcessors[modeType]
	if !ok {
		return xerrors.Errorf("invalid mode: %s", modeType)
	}

	canxCtx, canxFn := context.WithCancel(canxCtx)
	defer canxFn()

	// Create the services needed for the mode processor
	// Emitter service
	emitterSvc := newEmitter(cfgSvc)
	defer emitterSvc.Close()

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      data.NewFilesDB(cfgSvc),
		InferenceSvc: inference.NewEveryN(cfgSvc.GetSource().SubmitEvery),
		EmitterSvc:   emitterSvc,
	}

	lgr.Logger.Info(
		"alpr starting",
		slog.String("mode", modeType),
		slog.String("source", cfgSvc.GetSource().URL),
		slog.Int("submitEvery", cfgSvc.GetSource().SubmitEvery),
		slog.String("recognizer", cfgSvc.GetRecognizerParameters().Type),
	)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"alpr context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"alpr mode processor exited",
				slog.Any("error", err),
			)
		}
		return err
	}

	lgr.Logger.Info(
		"alpr is waiting for the mode processor to exit",
	)

	// The mode processor gets `waitOnShutdown` to wind down its go routines
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		// Timer expired, proceed with shutdown
		lgr.Logger.Info(
			"alpr shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)
		return nil

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"alpr mode processor exited",
				slog.Any("error", err),
			)
		}
		return nil
	}
}
