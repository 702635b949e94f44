package config

type fakeService struct {
}

// NewFake returns a config service with fixed values suitable for tests.
func NewFake() IService {
	return &fakeService{}
}

func (svc *fakeService) GetBindAddress() string {
	return "127.0.0.1:0"
}

func (svc *fakeService) GetModeMaxShutdownTime() int {
	return 1
}

func (svc *fakeService) GetVideoSource() string {
	return "0"
}

func (svc *fakeService) GetCaptureBufferSize() int {
	return 1
}

func (svc *fakeService) GetCaptureTargetFPS() int {
	return 15
}

func (svc *fakeService) GetModelPath() string {
	return ""
}

func (svc *fakeService) GetClassNamesPath() string {
	return ""
}

func (svc *fakeService) GetConfidenceThreshold() float32 {
	return 0.5
}

func (svc *fakeService) GetObjectConfidenceThreshold() float32 {
	return 0.5
}

func (svc *fakeService) GetDetectorInputSize() int {
	return 640
}

func (svc *fakeService) GetAllowedClasses() []string {
	return defaultAllowedClasses
}

func (svc *fakeService) GetSampleInterval() int {
	return 6
}

func (svc *fakeService) GetAlertCooldown() int {
	return 3
}

func (svc *fakeService) GetOutputScale() float64 {
	return 1.0
}

func (svc *fakeService) GetSnapshotsFolder() string {
	return ""
}

func (svc *fakeService) GetDetectionsLogFile() string {
	return ""
}

func (svc *fakeService) GetWebhookURL() string {
	return ""
}
