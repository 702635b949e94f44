package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
)

var overlayColor = color.RGBA{0, 255, 0, 0}

// drawDetections overlays a bounding box and a "class confidence" label
// for every detection that passes the allowlist.
func drawDetections(img *gocv.Mat, detections []model.Detection, allowed func(int) bool) {
	for _, d := range detections {
		if !allowed(d.ClassID) {
			continue
		}

		gocv.Rectangle(img, d.Rect, overlayColor, 2)

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		gocv.PutText(img, label, image.Pt(d.Rect.Min.X, d.Rect.Min.Y-10),
			gocv.FontHersheySimplex, 0.7, overlayColor, 2)
	}
}
