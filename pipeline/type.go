package pipeline

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/service/config"
	"github.com/detectcam/dc-go/service/detector"
	"github.com/detectcam/dc-go/service/metrics"
	"github.com/detectcam/dc-go/service/stats"
	"github.com/detectcam/dc-go/service/webhook"
)

type ServicesFactory struct {
	CfgSvc      config.IService
	StatsSvc    stats.IService
	DetectorSvc detector.IService
	Metrics     *metrics.Metrics
	WebhookSvc  webhook.IService
}

// Source is an opaque frame supplier. Read fills img and reports whether
// a frame was produced; a false return ends the stream. Close releases
// the underlying handle and must be safe to call once.
type Source interface {
	Read(img *gocv.Mat) bool
	Close() error
}

// SourceFactory opens a fresh source. Every stream request gets its own
// handle; there is no sharing between requests.
type SourceFactory func() (Source, error)

type AlertData struct {
	Frame     gocv.Mat
	StreamID  string
	Label     string
	Count     int
	Message   string
	Timestamp time.Time
}
