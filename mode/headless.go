package mode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/detectcam/dc-go/pipeline"
	"github.com/detectcam/dc-go/service/lgr"
)

// Headless runs one processing loop with no HTTP surface: chunks are
// produced and discarded while stats and alerts keep flowing. Useful on
// capture boxes that only need alerting.
func Headless(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	sourceFactory pipeline.SourceFactory,
	alertStream chan pipeline.AlertData) error {
	source, err := sourceFactory()
	if err != nil {
		return fmt.Errorf("error opening frame source: %w", err)
	}

	stream := pipeline.NewStream(svcs, source, alertStream)
	defer stream.Close()

	for range stream.Run(canxCtx) {
		// Chunks are discarded; encoding still runs so the loop timing
		// matches serve mode.
	}

	streamStats := stream.Stats()
	lgr.Logger.Info(
		"headless stream ended",
		slog.Int("frames", streamStats.Frames),
		slog.Int("detections", streamStats.Detections),
		slog.Int("alerts", streamStats.Alerts),
		slog.Int("errors", streamStats.Errors),
	)

	return nil
}
