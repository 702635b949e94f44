package config

type IService interface {
	GetBindAddress() string
	GetModeMaxShutdownTime() int

	// Capture
	GetVideoSource() string
	GetCaptureBufferSize() int
	GetCaptureTargetFPS() int

	// Detection
	GetModelPath() string
	GetClassNamesPath() string
	GetConfidenceThreshold() float32
	GetObjectConfidenceThreshold() float32
	GetDetectorInputSize() int
	GetAllowedClasses() []string

	// Processing loop
	GetSampleInterval() int
	GetAlertCooldown() int
	GetOutputScale() float64

	// Alerting
	GetSnapshotsFolder() string
	GetDetectionsLogFile() string
	GetWebhookURL() string
}
