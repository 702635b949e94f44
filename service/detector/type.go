package detector

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
)

// IService wraps an opaque classifier. Detect is synchronous and
// CPU/GPU-bound; latency varies from tens to hundreds of milliseconds.
type IService interface {
	Detect(ctx context.Context, img gocv.Mat) ([]model.Detection, error)
	ClassName(id int) string
	IsAllowed(id int) bool
	Close() error
}
