package detector

import (
	"context"
	"image"
	"strings"

	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
)

var fakeLabels = []string{"person", "bicycle", "car", "motorcycle", "bus", "truck", "dog", "cat"}

type fakeService struct {
	allowed map[string]bool
}

// NewFake returns a detector that reports a single person on every call.
// It is used when no model is available and in dev runs.
func NewFake() IService {
	allowed := map[string]bool{}
	for _, l := range fakeLabels {
		allowed[l] = true
	}
	return &fakeService{allowed: allowed}
}

func (svc *fakeService) Detect(_ context.Context, img gocv.Mat) ([]model.Detection, error) {
	rect := image.Rect(0, 0, 120, 240)
	if !img.Empty() {
		rect = image.Rect(img.Cols()/4, img.Rows()/4, img.Cols()/2, img.Rows()-img.Rows()/4)
	}

	return []model.Detection{
		{
			ClassID:    0,
			ClassName:  "person",
			Rect:       rect,
			Confidence: 0.9,
		},
	}, nil
}

func (svc *fakeService) ClassName(id int) string {
	if id < 0 || id >= len(fakeLabels) {
		return ""
	}
	return fakeLabels[id]
}

func (svc *fakeService) IsAllowed(id int) bool {
	return svc.allowed[strings.ToLower(svc.ClassName(id))]
}

func (svc *fakeService) Close() error {
	return nil
}
