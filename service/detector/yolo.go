package detector

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
	"github.com/detectcam/dc-go/service/config"
	"github.com/detectcam/dc-go/service/lgr"
)

type yoloService struct {
	// WARNING: gocv.Net is not thread-safe, so Detect serializes on mu.
	mu        sync.Mutex
	net       gocv.Net
	labels    []string
	allowed   map[string]bool
	objThresh float32
	cnfThresh float32
	inputSize int
	tracer    trace.Tracer
}

// NewYolo loads a YOLOv5 ONNX model through the gocv DNN module.
func NewYolo(cfgSvc config.IService) (IService, error) {
	modelPath := cfgSvc.GetModelPath()
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("yolo model %s does not exist", modelPath)
	}

	labels, err := loadLabels(cfgSvc.GetClassNamesPath())
	if err != nil {
		return nil, fmt.Errorf("error loading class names: %w", err)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("error reading yolo model %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target: %w", err)
	}

	allowed := map[string]bool{}
	for _, c := range cfgSvc.GetAllowedClasses() {
		allowed[strings.ToLower(c)] = true
	}

	lgr.Logger.Info("yolo detector loaded",
		slog.String("model", modelPath),
		slog.Int("labels", len(labels)),
		slog.Int("allowed", len(allowed)),
		slog.String("openCV", gocv.Version()),
	)

	return &yoloService{
		net:       net,
		labels:    labels,
		allowed:   allowed,
		objThresh: cfgSvc.GetObjectConfidenceThreshold(),
		cnfThresh: cfgSvc.GetConfidenceThreshold(),
		inputSize: cfgSvc.GetDetectorInputSize(),
		tracer:    otel.Tracer("detector.yolo"),
	}, nil
}

func (svc *yoloService) Detect(ctx context.Context, img gocv.Mat) ([]model.Detection, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, span := svc.tracer.Start(ctx, "yolo.detect")
	defer span.End()

	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(svc.inputSize, svc.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	svc.net.SetInput(blob, "")

	output := svc.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected DNN output dims: %v", dims)
	}

	reshaped := output.Reshape(1, dims[1])
	if reshaped.Empty() || reshaped.Rows() == 0 || reshaped.Cols() < 5 {
		reshaped.Close()
		return nil, fmt.Errorf("reshape produced invalid dimensions")
	}
	defer reshaped.Close()

	detections := []model.Detection{}
	for i := 0; i < reshaped.Rows(); i++ {
		row := reshaped.RowRange(i, i+1)
		data, err := row.DataPtrFloat32()
		row.Close()

		if err != nil || data == nil {
			continue
		}

		det, ok := decodeRow(data, img.Cols(), img.Rows(), svc.labels, svc.allowed,
			svc.objThresh, svc.cnfThresh)
		if !ok {
			continue
		}
		detections = append(detections, det)
	}

	span.SetAttributes(attribute.Int("detections", len(detections)))
	return detections, nil
}

func (svc *yoloService) ClassName(id int) string {
	if id < 0 || id >= len(svc.labels) {
		return ""
	}
	return svc.labels[id]
}

func (svc *yoloService) IsAllowed(id int) bool {
	return svc.allowed[strings.ToLower(svc.ClassName(id))]
}

func (svc *yoloService) Close() error {
	return svc.net.Close()
}

// decodeRow turns one raw YOLOv5 output row into a detection. A row is
// [cx, cy, w, h, objectness, classScores...] with box coords normalized
// to the frame.
func decodeRow(data []float32, cols, rows int, labels []string, allowed map[string]bool,
	objThresh, cnfThresh float32) (model.Detection, bool) {
	if len(data) < 5 {
		return model.Detection{}, false
	}

	objectConfidence := data[4]
	if objectConfidence < objThresh {
		return model.Detection{}, false
	}

	classScores := data[5:]
	if len(classScores) != len(labels) {
		return model.Detection{}, false
	}

	classID := -1
	classConfidence := float32(0.0)
	for j, score := range classScores {
		if !allowed[strings.ToLower(labels[j])] {
			continue
		}
		if score > classConfidence {
			classConfidence = score
			classID = j
		}
	}

	finalConf := objectConfidence * classConfidence
	if classID == -1 || finalConf < cnfThresh {
		return model.Detection{}, false
	}

	cx := data[0] * float32(cols)
	cy := data[1] * float32(rows)
	w := data[2] * float32(cols)
	h := data[3] * float32(rows)
	x := int(cx - w/2)
	y := int(cy - h/2)

	return model.Detection{
		ClassID:    classID,
		ClassName:  labels[classID],
		Rect:       image.Rect(x, y, x+int(w), y+int(h)),
		Confidence: finalConf,
	}, true
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n"), nil
}
