package pipeline

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
	"github.com/detectcam/dc-go/service/config"
	"github.com/detectcam/dc-go/service/metrics"
	"github.com/detectcam/dc-go/service/stats"
)

var stubNames = []string{"person", "car", "knife"}

// stubDetector scripts per-call results so the sampling and alerting
// behavior of the loop can be pinned down.
type stubDetector struct {
	mu      sync.Mutex
	calls   int
	allowed map[string]bool
	detect  func(call int) ([]model.Detection, error)
}

func newStubDetector(detect func(call int) ([]model.Detection, error)) *stubDetector {
	return &stubDetector{
		allowed: map[string]bool{"person": true, "car": true},
		detect:  detect,
	}
}

func (d *stubDetector) Detect(_ context.Context, _ gocv.Mat) ([]model.Detection, error) {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()
	return d.detect(call)
}

func (d *stubDetector) ClassName(id int) string {
	if id < 0 || id >= len(stubNames) {
		return ""
	}
	return stubNames[id]
}

func (d *stubDetector) IsAllowed(id int) bool {
	return d.allowed[d.ClassName(id)]
}

func (d *stubDetector) Close() error {
	return nil
}

func (d *stubDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func detection(id int, name string) model.Detection {
	return model.Detection{
		ClassID:    id,
		ClassName:  name,
		Rect:       image.Rect(10, 10, 60, 80),
		Confidence: 0.9,
	}
}

func testServices(det *stubDetector) (ServicesFactory, stats.IService) {
	statsSvc := stats.NewInMemory()
	return ServicesFactory{
		CfgSvc:      config.NewFake(),
		StatsSvc:    statsSvc,
		DetectorSvc: det,
		Metrics:     metrics.New(),
	}, statsSvc
}

func TestStreamEndToEnd(t *testing.T) {
	det := newStubDetector(func(_ int) ([]model.Detection, error) {
		return []model.Detection{detection(0, "person")}, nil
	})
	svcs, statsSvc := testServices(det)
	source := NewSyntheticSource(12)

	stream := NewStream(svcs, source, nil)
	chunks := [][]byte{}
	for chunk := range stream.Run(context.Background()) {
		chunks = append(chunks, chunk)
	}

	// 12 frames in, 12 encoded chunks out, detection on frames 6 and 12.
	require.Len(t, chunks, 12)
	assert.Equal(t, 2, det.callCount())

	for _, chunk := range chunks {
		require.GreaterOrEqual(t, len(chunk), 2)
		assert.Equal(t, byte(0xFF), chunk[0])
		assert.Equal(t, byte(0xD8), chunk[1])
	}

	// Both sampling frames are well inside the 3s cooldown, so only the
	// first one alerts.
	streamStats := stream.Stats()
	assert.Equal(t, 12, streamStats.Frames)
	assert.Equal(t, 12, streamStats.Chunks)
	assert.Equal(t, 2, streamStats.Detections)
	assert.Equal(t, 1, streamStats.Alerts)
	assert.Equal(t, 0, streamStats.Errors)

	snapshot := statsSvc.Read()
	assert.Equal(t, map[string]int{"person": 1}, snapshot.Counts)
	assert.Equal(t, "1 person detected", snapshot.Alert.Message)
	assert.Greater(t, snapshot.FPS, 0.0)

	assert.Equal(t, 1, source.CloseCount())
}

func TestStreamCancellationReleasesSourceOnce(t *testing.T) {
	det := newStubDetector(func(_ int) ([]model.Detection, error) {
		return []model.Detection{detection(0, "person")}, nil
	})
	svcs, _ := testServices(det)
	source := NewSyntheticSource(12)

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewStream(svcs, source, nil)
	chunks := stream.Run(ctx)

	received := 0
	for range 5 {
		_, ok := <-chunks
		require.True(t, ok)
		received++
	}
	cancel()

	// The chunk channel is unbuffered, so the pending send aborts and no
	// further chunks arrive.
	for range chunks {
		received++
	}
	assert.Equal(t, 5, received)
	assert.Equal(t, 1, source.CloseCount())

	// Closing again must not release the source a second time.
	stream.Close()
	assert.Equal(t, 1, source.CloseCount())
}

func TestStreamCountsRespectAllowlist(t *testing.T) {
	det := newStubDetector(func(_ int) ([]model.Detection, error) {
		return []model.Detection{
			detection(0, "person"),
			detection(2, "knife"),
			detection(2, "knife"),
		}, nil
	})
	svcs, statsSvc := testServices(det)

	stream := NewStream(svcs, NewSyntheticSource(6), nil)
	for range stream.Run(context.Background()) {
	}

	snapshot := statsSvc.Read()
	assert.Equal(t, map[string]int{"person": 1}, snapshot.Counts)
	assert.Equal(t, "1 person detected", snapshot.Alert.Message)
}

func TestStreamDetectorErrorDegrades(t *testing.T) {
	det := newStubDetector(func(call int) ([]model.Detection, error) {
		if call == 1 {
			return nil, assert.AnError
		}
		return []model.Detection{detection(1, "car")}, nil
	})
	svcs, statsSvc := testServices(det)

	stream := NewStream(svcs, NewSyntheticSource(12), nil)
	chunks := 0
	for range stream.Run(context.Background()) {
		chunks++
	}

	// A failed sampling frame does not kill the stream.
	assert.Equal(t, 12, chunks)

	streamStats := stream.Stats()
	assert.Equal(t, 2, streamStats.Detections)
	assert.Equal(t, 1, streamStats.Errors)

	snapshot := statsSvc.Read()
	assert.Equal(t, map[string]int{"car": 1}, snapshot.Counts)
}

func TestSmoothFPS(t *testing.T) {
	// First sample seeds the average directly.
	assert.InDelta(t, 42.0, smoothFPS(0, 42.0), 1e-9)

	// Then the EMA recurrence with decay 0.9 applies.
	assert.InDelta(t, 11.0, smoothFPS(10, 20), 1e-9)
	assert.InDelta(t, 0.9*11.0+0.1*30, smoothFPS(11, 30), 1e-9)
}

func TestPluralityFirstSeenWins(t *testing.T) {
	class, count := plurality(
		map[string]int{"car": 2, "person": 3},
		[]string{"car", "person"},
	)
	assert.Equal(t, "person", class)
	assert.Equal(t, 3, count)

	// Ties break in favor of the class seen first.
	class, count = plurality(
		map[string]int{"car": 2, "person": 2},
		[]string{"car", "person"},
	)
	assert.Equal(t, "car", class)
	assert.Equal(t, 2, count)
}

func TestAlertGateCooldown(t *testing.T) {
	gate := alertGate{cooldown: 3 * time.Second}
	t0 := time.Unix(1000, 0)

	// Cooldown effectively starts at zero, so the first event fires.
	assert.True(t, gate.permit(t0))

	assert.False(t, gate.permit(t0.Add(2*time.Second)))
	// The boundary is strict: exactly 3s is still within cooldown.
	assert.False(t, gate.permit(t0.Add(3*time.Second)))
	assert.True(t, gate.permit(t0.Add(3*time.Second+time.Millisecond)))

	// A suppressed event must not push the window forward.
	assert.False(t, gate.permit(t0.Add(5*time.Second)))
	assert.True(t, gate.permit(t0.Add(7*time.Second)))
}
