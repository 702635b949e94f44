package config

import (
	"os"
	"strconv"
	"strings"
)

// The default allowlist matches the classes the service was tuned for.
var defaultAllowedClasses = []string{
	"person", "car", "dog", "cat", "bicycle", "motorcycle", "bus",
	"truck", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bird", "horse", "sheep", "cow",
}

type envService struct {
}

// NewEnv returns a config service backed by environment variables with
// hardcoded fallbacks. In dev mode the variables come from a .env file
// loaded by main.
func NewEnv() IService {
	return &envService{}
}

func (svc *envService) GetBindAddress() string {
	return getString("BIND_ADDRESS", "0.0.0.0:5000")
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return getInt("MODE_MAX_SHUTDOWN_TIME", 5)
}

func (svc *envService) GetVideoSource() string {
	// Device index ("0") or a capture URL (RTSP, MJPEG over HTTP, file).
	return getString("VIDEO_SOURCE", "0")
}

func (svc *envService) GetCaptureBufferSize() int {
	// Best-effort hint to the capture backend to keep latency down.
	return getInt("CAPTURE_BUFFER_SIZE", 1)
}

func (svc *envService) GetCaptureTargetFPS() int {
	return getInt("CAPTURE_TARGET_FPS", 15)
}

func (svc *envService) GetModelPath() string {
	return getString("MODEL_PATH", "./yolo5/yolov5s.onnx")
}

func (svc *envService) GetClassNamesPath() string {
	return getString("CLASS_NAMES_PATH", "./yolo5/coco.names")
}

func (svc *envService) GetConfidenceThreshold() float32 {
	return getFloat32("CONFIDENCE_THRESHOLD", 0.5)
}

func (svc *envService) GetObjectConfidenceThreshold() float32 {
	return getFloat32("OBJECT_CONFIDENCE_THRESHOLD", 0.5)
}

func (svc *envService) GetDetectorInputSize() int {
	return getInt("DETECTOR_INPUT_SIZE", 640)
}

func (svc *envService) GetAllowedClasses() []string {
	raw := os.Getenv("ALLOWED_CLASSES")
	if raw == "" {
		return defaultAllowedClasses
	}

	classes := []string{}
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(strings.ToLower(c))
		if c != "" {
			classes = append(classes, c)
		}
	}
	return classes
}

func (svc *envService) GetSampleInterval() int {
	// Run inference on one frame in N to bound inference cost.
	return getInt("SAMPLE_INTERVAL", 6)
}

func (svc *envService) GetAlertCooldown() int {
	// Seconds between successive alert emissions.
	return getInt("ALERT_COOLDOWN", 3)
}

func (svc *envService) GetOutputScale() float64 {
	return getFloat64("OUTPUT_SCALE", 1.0)
}

func (svc *envService) GetSnapshotsFolder() string {
	return getString("SNAPSHOTS_FOLDER", "./snapshots")
}

func (svc *envService) GetDetectionsLogFile() string {
	return getString("DETECTIONS_LOG_FILE", "detections.log")
}

func (svc *envService) GetWebhookURL() string {
	return getString("WEBHOOK_URL", "")
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func getFloat64(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
