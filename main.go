package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/detectcam/dc-go/mode"
	"github.com/detectcam/dc-go/pipeline"
	"github.com/detectcam/dc-go/service/config"
	"github.com/detectcam/dc-go/service/detector"
	"github.com/detectcam/dc-go/service/lgr"
	"github.com/detectcam/dc-go/service/metrics"
	"github.com/detectcam/dc-go/service/stats"
	"github.com/detectcam/dc-go/service/webhook"
)

const (
	// WARNING: this has to be bigger than the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"serve":    mode.Serve,
	"headless": mode.Headless,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

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
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	modeType := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Create the services needed for the mode processor
	// Config service
	cfgSvc := config.NewEnv()
	// Stats service
	statsSvc := stats.NewInMemory()
	// Metrics service
	metricsSvc := metrics.New()
	// Webhook service
	var webhookSvc webhook.IService
	if cfgSvc.GetWebhookURL() != "" {
		webhookSvc = webhook.NewHTTP(cfgSvc)
	} else {
		webhookSvc = webhook.NewFake(cfgSvc)
	}
	// Detector service: fall back to the fake detector when no model is
	// deployed so the stream still works end to end
	detectorSvc, err := detector.NewYolo(cfgSvc)
	if err != nil {
		lgr.Logger.Warn(
			"yolo detector unavailable, using fake detector",
			slog.Any("error", xerrors.New(err.Error())),
		)
		detectorSvc = detector.NewFake()
	}
	defer detectorSvc.Close()

	svcs := pipeline.ServicesFactory{
		CfgSvc:      cfgSvc,
		StatsSvc:    statsSvc,
		DetectorSvc: detectorSvc,
		Metrics:     metricsSvc,
		WebhookSvc:  webhookSvc,
	}

	// Every stream request opens its own capture handle
	sourceFactory := func() (pipeline.Source, error) {
		return pipeline.NewCaptureSource(cfgSvc)
	}

	// Start the alerter
	alertStream := pipeline.SimpleAlerter(canxCtx, cfgSvc, webhookSvc)

	// Create mode processor result
	modeProcResult := make(chan error)
	defer close(modeProcResult)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, sourceFactory, alertStream)
	}()

	// Wait for cancellation, mode proc exit or error
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"camera pod context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"camera pod mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}

	// Cancel the context if not already cancelled
	if canxCtx.Err() == nil {
		canxFn()
	}

	lgr.Logger.Info(
		"camera pod is waiting for all go routines to exit",
	)

	// Wait in a non-blocking way for `waitOnShutdown` for the go routines
	// to exit; they may still need to report errors on their way out
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				"camera pod shutdown waiting period expired. Exiting now",
				slog.Duration("period", waitOnShutdown),
			)

			return

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"camera pod mode processor exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
		}
	}
}
