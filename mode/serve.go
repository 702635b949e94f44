package mode

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/detectcam/dc-go/pipeline"
	"github.com/detectcam/dc-go/server"
	"github.com/detectcam/dc-go/service/lgr"
)

// Serve runs the HTTP surface until the context is cancelled, then shuts
// the server down within the configured grace period.
func Serve(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	sourceFactory pipeline.SourceFactory,
	alertStream chan pipeline.AlertData) error {
	srv := server.New(svcs, sourceFactory, alertStream)

	httpServer := &http.Server{
		Addr:    svcs.CfgSvc.GetBindAddress(),
		Handler: srv.Handler(),
	}

	errStream := make(chan error, 1)
	go func() {
		lgr.Logger.Info(
			"http server starting...",
			slog.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errStream <- err
		}
	}()

	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"serve mode context cancelled",
		)

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)

	case err := <-errStream:
		return err
	}
}
