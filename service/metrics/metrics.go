package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. Atomics keep the hot path cheap;
// Prometheus reads them lazily through GaugeFunc collectors.
type Metrics struct {
	FramesRead      atomic.Uint64
	ChunksSent      atomic.Uint64
	Detections      atomic.Uint64
	DetectionErrors atomic.Uint64
	AlertsEmitted   atomic.Uint64
	ActiveStreams   atomic.Int64
	TotalStreams    atomic.Uint64

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.register()
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) register() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_frames_read_total",
			Help: "Total frames pulled from video sources",
		},
		func() float64 { return float64(m.FramesRead.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_chunks_sent_total",
			Help: "Total encoded JPEG chunks produced",
		},
		func() float64 { return float64(m.ChunksSent.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_detections_total",
			Help: "Total inference invocations",
		},
		func() float64 { return float64(m.Detections.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_detection_errors_total",
			Help: "Total failed inference invocations",
		},
		func() float64 { return float64(m.DetectionErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_alerts_emitted_total",
			Help: "Total alerts emitted past the cooldown gate",
		},
		func() float64 { return float64(m.AlertsEmitted.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_active_streams",
			Help: "Streams currently being served",
		},
		func() float64 { return float64(m.ActiveStreams.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_streams_total",
			Help: "Total streams opened since startup",
		},
		func() float64 { return float64(m.TotalStreams.Load()) },
	))
}
