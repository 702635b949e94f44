package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvDefaults(t *testing.T) {
	svc := NewEnv()

	assert.Equal(t, "0.0.0.0:5000", svc.GetBindAddress())
	assert.Equal(t, 6, svc.GetSampleInterval())
	assert.Equal(t, 3, svc.GetAlertCooldown())
	assert.Equal(t, 1, svc.GetCaptureBufferSize())
	assert.Equal(t, 15, svc.GetCaptureTargetFPS())
	assert.Equal(t, 1.0, svc.GetOutputScale())
	assert.Contains(t, svc.GetAllowedClasses(), "person")
	assert.Contains(t, svc.GetAllowedClasses(), "traffic light")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SAMPLE_INTERVAL", "3")
	t.Setenv("ALERT_COOLDOWN", "10")
	t.Setenv("OUTPUT_SCALE", "0.5")
	t.Setenv("ALLOWED_CLASSES", "Person, dog ,")

	svc := NewEnv()
	assert.Equal(t, 3, svc.GetSampleInterval())
	assert.Equal(t, 10, svc.GetAlertCooldown())
	assert.Equal(t, 0.5, svc.GetOutputScale())
	assert.Equal(t, []string{"person", "dog"}, svc.GetAllowedClasses())
}

func TestEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SAMPLE_INTERVAL", "six")
	t.Setenv("OUTPUT_SCALE", "half")

	svc := NewEnv()
	assert.Equal(t, 6, svc.GetSampleInterval())
	assert.Equal(t, 1.0, svc.GetOutputScale())
}
