package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroSnapshot(t *testing.T) {
	svc := NewInMemory()

	snapshot := svc.Read()
	assert.Equal(t, 0.0, snapshot.FPS)
	assert.NotNil(t, snapshot.Counts)
	assert.Empty(t, snapshot.Counts)
	assert.Equal(t, 0.0, snapshot.LastUpdateTS)
	assert.Equal(t, "", snapshot.Alert.Message)
	assert.Equal(t, 0.0, snapshot.Alert.TS)
}

func TestUpdateReplacesSnapshot(t *testing.T) {
	svc := NewInMemory()

	svc.Update(12.5, map[string]int{"person": 2, "car": 1}, "")

	snapshot := svc.Read()
	assert.Equal(t, 12.5, snapshot.FPS)
	assert.Equal(t, map[string]int{"person": 2, "car": 1}, snapshot.Counts)
	assert.Greater(t, snapshot.LastUpdateTS, 0.0)
	assert.Equal(t, "", snapshot.Alert.Message)
}

func TestAlertOnlyReplacedWhenMessagePresent(t *testing.T) {
	svc := NewInMemory()

	svc.Update(10, map[string]int{"person": 1}, "1 person detected")
	first := svc.Read()
	require.Equal(t, "1 person detected", first.Alert.Message)
	require.Greater(t, first.Alert.TS, 0.0)

	// An empty alert message must leave the previous alert untouched.
	svc.Update(11, map[string]int{"person": 3}, "")
	second := svc.Read()
	assert.Equal(t, first.Alert, second.Alert)
	assert.Equal(t, 11.0, second.FPS)

	svc.Update(12, map[string]int{"car": 2}, "2 car detected")
	third := svc.Read()
	assert.Equal(t, "2 car detected", third.Alert.Message)
	assert.GreaterOrEqual(t, third.Alert.TS, first.Alert.TS)
}

func TestReadIsolation(t *testing.T) {
	svc := NewInMemory()
	svc.Update(5, map[string]int{"person": 1}, "")

	snapshot := svc.Read()
	snapshot.Counts["person"] = 99
	snapshot.Counts["bogus"] = 1
	snapshot.FPS = 0

	fresh := svc.Read()
	assert.Equal(t, map[string]int{"person": 1}, fresh.Counts)
	assert.Equal(t, 5.0, fresh.FPS)
}

func TestUpdateIsolation(t *testing.T) {
	svc := NewInMemory()

	counts := map[string]int{"person": 1}
	svc.Update(5, counts, "")

	// Caller mutations after Update must not leak into the store.
	counts["person"] = 42

	snapshot := svc.Read()
	assert.Equal(t, 1, snapshot.Counts["person"])
}
