package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/natefinch/lumberjack"
	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/service/config"
	"github.com/detectcam/dc-go/service/lgr"
	"github.com/detectcam/dc-go/service/webhook"
)

// SimpleAlerter consumes alerts from the processing loops: it stores a
// snapshot of the alerted frame, appends an entry to the detections log
// and posts the payload to the configured webhook.
func SimpleAlerter(canx context.Context, cfgSvc config.IService, webhookSvc webhook.IService) chan AlertData {
	in := make(chan AlertData, 100)

	var detectionsLog *lumberjack.Logger
	if cfgSvc.GetDetectionsLogFile() != "" {
		detectionsLog = &lumberjack.Logger{
			Filename:   cfgSvc.GetDetectionsLogFile(),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		}
	}

	go func() {
		// The channel is deliberately never closed: streams winding down
		// after a cancellation may still try to send, and a send to a
		// closed channel panics. It is garbage-collected once the last
		// producer drops its reference.
		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"alerter context cancelled",
				)
				return

			case alert := <-in:
				if folder := cfgSvc.GetSnapshotsFolder(); folder != "" {
					gocv.IMWrite(fmt.Sprintf("%s/%s_alert_%d.jpg", folder, alert.StreamID, alert.Timestamp.Unix()), alert.Frame)
				}
				alert.Frame.Close()

				logDetection(detectionsLog, alert)

				payload := map[string]interface{}{
					"source":    alert.StreamID,
					"label":     alert.Label,
					"count":     alert.Count,
					"message":   alert.Message,
					"timestamp": alert.Timestamp.Format(time.RFC3339),
				}
				if err := webhookSvc.Post(payload); err != nil {
					lgr.Logger.Error(
						"error posting alert webhook",
						lgr.Err(err),
					)
				}

				lgr.Logger.Info(
					"alert detected",
					slog.String("stream", alert.StreamID),
					slog.String("label", alert.Label),
					slog.Int("count", alert.Count),
					slog.Time("timestamp", alert.Timestamp),
				)
			}
		}
	}()

	return in
}

func logDetection(sink *lumberjack.Logger, alert AlertData) {
	if sink == nil {
		return
	}

	entry := map[string]interface{}{
		"time":    alert.Timestamp.Format(time.RFC3339),
		"stream":  alert.StreamID,
		"label":   alert.Label,
		"count":   alert.Count,
		"message": alert.Message,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		lgr.Logger.Error("error marshaling detection entry", lgr.Err(err))
		return
	}

	if _, err := sink.Write(append(data, '\n')); err != nil {
		lgr.Logger.Error("error writing to detections log", lgr.Err(err))
	}
}
