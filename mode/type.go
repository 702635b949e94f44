package mode

import (
	"context"

	"github.com/detectcam/dc-go/pipeline"
)

// Processor is the signature of a run mode.
type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	sourceFactory pipeline.SourceFactory,
	alertStream chan pipeline.AlertData) error
