package stats

import "github.com/detectcam/dc-go/model"

// IService holds the latest frame statistics snapshot. Writers are the
// processing loops; readers are the /stats endpoint and metrics gauges.
type IService interface {
	// Update atomically replaces fps, counts and the update timestamp.
	// The alert is replaced only when alertMessage is non-empty.
	Update(fps float64, counts map[string]int, alertMessage string)

	// Read returns a deep copy of the current snapshot. Mutating the
	// returned value never affects the store.
	Read() model.FrameStats
}
