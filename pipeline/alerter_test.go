package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/service/config"
)

// recordingWebhook captures posted payloads.
type recordingWebhook struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func (w *recordingWebhook) Post(payload map[string]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.payloads = append(w.payloads, payload)
	return nil
}

func (w *recordingWebhook) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.payloads)
}

func testAlert() AlertData {
	return AlertData{
		Frame:     gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3),
		StreamID:  "stream-1",
		Label:     "person",
		Count:     2,
		Message:   "2 person detected",
		Timestamp: time.Now(),
	}
}

func TestAlerterPostsWebhook(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hook := &recordingWebhook{}
	in := SimpleAlerter(ctx, config.NewFake(), hook)

	in <- testAlert()

	assert.Eventually(t, func() bool {
		return hook.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAlerterChannelSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hook := &recordingWebhook{}
	in := SimpleAlerter(ctx, config.NewFake(), hook)

	cancel()
	time.Sleep(50 * time.Millisecond)

	// A stream winding down after the cancellation can still emit an
	// alert. The send must neither panic nor block; the alert is simply
	// never consumed.
	alert := testAlert()
	assert.NotPanics(t, func() {
		in <- alert
	})
	alert.Frame.Close()
}
