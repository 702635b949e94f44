package pipeline

import (
	"strconv"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
	"github.com/detectcam/dc-go/service/config"
)

type captureSource struct {
	webcam *gocv.VideoCapture
}

// NewCaptureSource opens the configured camera device or capture URL.
// Buffer depth and target FPS are best-effort hints; not every backend
// honors them.
func NewCaptureSource(cfgSvc config.IService) (Source, error) {
	src := cfgSvc.GetVideoSource()

	var webcam *gocv.VideoCapture
	var err error
	if idx, convErr := strconv.Atoi(src); convErr == nil {
		webcam, err = gocv.OpenVideoCapture(idx)
	} else {
		webcam, err = gocv.OpenVideoCapture(src)
	}
	if err != nil {
		return nil, model.GenError("capture_source",
			err,
			map[string]interface{}{"source": src},
			"error opening video source %s", src)
	}

	webcam.Set(gocv.VideoCaptureBufferSize, float64(cfgSvc.GetCaptureBufferSize()))
	webcam.Set(gocv.VideoCaptureFPS, float64(cfgSvc.GetCaptureTargetFPS()))

	return &captureSource{webcam: webcam}, nil
}

func (s *captureSource) Read(img *gocv.Mat) bool {
	return s.webcam.Read(img)
}

func (s *captureSource) Close() error {
	return s.webcam.Close()
}

// SyntheticSource yields a fixed number of generated frames. It backs
// headless dev runs and tests where no camera is attached.
type SyntheticSource struct {
	total  int
	served int
	closes atomic.Int64
}

// NewSyntheticSource returns a source producing total frames; a negative
// total produces frames forever.
func NewSyntheticSource(total int) *SyntheticSource {
	return &SyntheticSource{total: total}
}

func (s *SyntheticSource) Read(img *gocv.Mat) bool {
	if s.total >= 0 && s.served >= s.total {
		return false
	}
	s.served++

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(img)
	return true
}

func (s *SyntheticSource) Close() error {
	s.closes.Add(1)
	return nil
}

// CloseCount reports how many times Close has been called.
func (s *SyntheticSource) CloseCount() int {
	return int(s.closes.Load())
}
