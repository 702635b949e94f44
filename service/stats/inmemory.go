package stats

import (
	"sync"
	"time"

	"github.com/detectcam/dc-go/model"
)

type inMemoryService struct {
	mu     sync.Mutex
	latest model.FrameStats
	now    func() time.Time
}

// NewInMemory returns a stats store seeded with a zero-valued snapshot.
func NewInMemory() IService {
	return &inMemoryService{
		latest: model.FrameStats{
			Counts: map[string]int{},
		},
		now: time.Now,
	}
}

func (svc *inMemoryService) Update(fps float64, counts map[string]int, alertMessage string) {
	ts := float64(svc.now().UnixNano()) / float64(time.Second)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.latest.FPS = fps
	svc.latest.Counts = cloneCounts(counts)
	svc.latest.LastUpdateTS = ts

	if alertMessage != "" {
		svc.latest.Alert = model.Alert{
			Message: alertMessage,
			TS:      ts,
		}
	}
}

func (svc *inMemoryService) Read() model.FrameStats {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	snapshot := svc.latest
	snapshot.Counts = cloneCounts(svc.latest.Counts)
	return snapshot
}

func cloneCounts(counts map[string]int) map[string]int {
	clone := make(map[string]int, len(counts))
	for k, v := range counts {
		clone[k] = v
	}
	return clone
}
