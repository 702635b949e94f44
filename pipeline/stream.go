package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/detectcam/dc-go/model"
	"github.com/detectcam/dc-go/service/lgr"
)

// Stream is one processing loop instance: it pulls frames from its
// source, runs detection on sampling frames, overlays the freshest
// detections, and yields encoded JPEG chunks until the source is
// exhausted or the context is cancelled. Each stream owns its source and
// releases it exactly once.
type Stream struct {
	ID string

	svcs        ServicesFactory
	source      Source
	alertStream chan AlertData

	sampleInterval int
	cooldown       time.Duration
	scale          float64

	cancel      context.CancelFunc
	releaseOnce sync.Once

	mu    sync.Mutex
	stats model.StreamStats
}

func NewStream(svcs ServicesFactory, source Source, alertStream chan AlertData) *Stream {
	return &Stream{
		ID:             uuid.NewString(),
		svcs:           svcs,
		source:         source,
		alertStream:    alertStream,
		sampleInterval: svcs.CfgSvc.GetSampleInterval(),
		cooldown:       time.Duration(svcs.CfgSvc.GetAlertCooldown()) * time.Second,
		scale:          svcs.CfgSvc.GetOutputScale(),
	}
}

// Run starts the loop and returns the chunk channel. The channel closes
// when the source is exhausted or ctx is cancelled; either way the
// source has been released by then.
func (s *Stream) Run(ctx context.Context) <-chan []byte {
	ctx, s.cancel = context.WithCancel(ctx)
	out := make(chan []byte)
	go s.loop(ctx, out)
	return out
}

// Close stops the loop and releases the source. The serving layer calls
// it on client disconnect; calling it more than once is harmless.
func (s *Stream) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.release()
}

// Stats returns the final stream counters once the chunk channel closed.
func (s *Stream) Stats() model.StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Stream) release() {
	s.releaseOnce.Do(func() {
		if err := s.source.Close(); err != nil {
			lgr.Logger.Error("error releasing frame source",
				slog.String("stream", s.ID),
				lgr.Err(err),
			)
		}
	})
}

func (s *Stream) loop(ctx context.Context, out chan<- []byte) {
	defer close(out)
	defer s.release()

	s.svcs.Metrics.TotalStreams.Add(1)
	s.svcs.Metrics.ActiveStreams.Add(1)
	defer s.svcs.Metrics.ActiveStreams.Add(-1)

	begin := time.Now()
	ls := model.StreamStats{ID: s.ID}
	defer func() {
		s.finish(ls, begin)
	}()

	lgr.Logger.Info("stream starting...",
		slog.String("stream", s.ID),
		slog.Int("sampleInterval", s.sampleInterval),
		slog.Float64("scale", s.scale),
	)

	img := gocv.NewMat()
	defer img.Close()

	var lastDetections []model.Detection
	smoothedFPS := 0.0
	gate := alertGate{cooldown: s.cooldown}

	for {
		select {
		case <-ctx.Done():
			lgr.Logger.Info("stream context cancelled", slog.String("stream", s.ID))
			return
		default:
		}

		if ok := s.source.Read(&img); !ok {
			lgr.Logger.Info("frame source exhausted",
				slog.String("stream", s.ID),
				slog.Int("frames", ls.Frames),
			)
			return
		}
		if img.Empty() {
			ls.Errors++
			continue
		}

		ls.Frames++
		s.svcs.Metrics.FramesRead.Add(1)

		if ls.Frames%s.sampleInterval == 0 {
			smoothedFPS = s.sample(ctx, img, smoothedFPS, &lastDetections, &gate, &ls)
		}

		drawDetections(&img, lastDetections, s.svcs.DetectorSvc.IsAllowed)

		if s.scale != 1.0 {
			gocv.Resize(img, &img, image.Point{}, s.scale, s.scale, gocv.InterpolationLinear)
		}

		chunk, err := encodeJPEG(img)
		if err != nil {
			ls.Errors++
			lgr.Logger.Warn("error encoding frame",
				slog.String("stream", s.ID),
				lgr.Err(err),
			)
			continue
		}

		// WARNING: a cancellation that landed while this frame was being
		// processed must be observed before the chunk goes out. The
		// blocking select alone can pick the send case even when ctx is
		// already done, so check non-blocking first.
		select {
		case <-ctx.Done():
			lgr.Logger.Info("stream context cancelled while sending", slog.String("stream", s.ID))
			return
		default:
		}

		select {
		case <-ctx.Done():
			lgr.Logger.Info("stream context cancelled while sending", slog.String("stream", s.ID))
			return
		case out <- chunk:
			ls.Chunks++
			s.svcs.Metrics.ChunksSent.Add(1)
		}
	}
}

// sample runs detection on the current frame and refreshes the smoothed
// FPS, the counts and the alert state. On detector failure the stream
// degrades to the carried-forward overlay instead of dying.
func (s *Stream) sample(ctx context.Context, img gocv.Mat, smoothed float64,
	last *[]model.Detection, gate *alertGate, ls *model.StreamStats) float64 {
	start := time.Now()
	detections, err := s.svcs.DetectorSvc.Detect(ctx, img)
	dt := time.Since(start).Seconds()

	ls.Detections++
	s.svcs.Metrics.Detections.Add(1)

	if err != nil {
		ls.Errors++
		s.svcs.Metrics.DetectionErrors.Add(1)
		lgr.Logger.Warn("detection failed, carrying previous results forward",
			slog.String("stream", s.ID),
			lgr.Err(err),
		)
		return smoothed
	}

	*last = detections

	instant := 1.0 / math.Max(dt, 1e-6)
	smoothed = smoothFPS(smoothed, instant)

	counts, order := s.countAllowed(detections)

	alertMessage := ""
	if len(counts) > 0 {
		class, count := plurality(counts, order)
		if gate.permit(time.Now()) {
			alertMessage = fmt.Sprintf("%d %s detected", count, class)
			ls.Alerts++
			s.svcs.Metrics.AlertsEmitted.Add(1)
			s.emitAlert(img, class, count, alertMessage)
		}
	}

	s.svcs.StatsSvc.Update(smoothed, counts, alertMessage)
	return smoothed
}

// countAllowed builds the per-class counts for allowlisted detections,
// remembering first-seen order for the plurality tie break.
func (s *Stream) countAllowed(detections []model.Detection) (map[string]int, []string) {
	counts := map[string]int{}
	order := []string{}
	for _, d := range detections {
		if !s.svcs.DetectorSvc.IsAllowed(d.ClassID) {
			continue
		}
		if _, seen := counts[d.ClassName]; !seen {
			order = append(order, d.ClassName)
		}
		counts[d.ClassName]++
	}
	return counts, order
}

func (s *Stream) emitAlert(img gocv.Mat, class string, count int, message string) {
	if s.alertStream == nil {
		return
	}

	alert := AlertData{
		Frame:     img.Clone(),
		StreamID:  s.ID,
		Label:     class,
		Count:     count,
		Message:   message,
		Timestamp: time.Now(),
	}

	select {
	case s.alertStream <- alert:
	default:
		alert.Frame.Close()
		lgr.Logger.Warn("alert stream full, dropping alert", slog.String("stream", s.ID))
	}
}

func (s *Stream) finish(ls model.StreamStats, begin time.Time) {
	ls.Uptime = int64(time.Since(begin).Seconds())
	uptime := ls.Uptime
	if uptime == 0 {
		uptime = 1
	}
	ls.FPS = float64(ls.Frames) / float64(uptime)
	ls.Timestamp = time.Now().Unix()

	s.mu.Lock()
	s.stats = ls
	s.mu.Unlock()

	lgr.Logger.Info("stream finished",
		slog.String("stream", ls.ID),
		slog.Int("frames", ls.Frames),
		slog.Int("chunks", ls.Chunks),
		slog.Int("detections", ls.Detections),
		slog.Int("alerts", ls.Alerts),
		slog.Int("errors", ls.Errors),
		slog.Int64("uptime", ls.Uptime),
	)
}

// smoothFPS applies an exponential moving average with decay 0.9. The
// first sample seeds the average directly.
func smoothFPS(prev, instant float64) float64 {
	if prev == 0 {
		return instant
	}
	return 0.9*prev + 0.1*instant
}

// plurality returns the class with the highest count. Ties break in
// favor of the class seen first.
func plurality(counts map[string]int, order []string) (string, int) {
	best := ""
	bestCount := 0
	for _, class := range order {
		if counts[class] > bestCount {
			best = class
			bestCount = counts[class]
		}
	}
	return best, bestCount
}

// alertGate enforces the minimum interval between alert emissions.
type alertGate struct {
	last     time.Time
	cooldown time.Duration
}

// permit reports whether an alert may fire at now and, if so, resets the
// cooldown window.
func (g *alertGate) permit(now time.Time) bool {
	if now.Sub(g.last) > g.cooldown {
		g.last = now
		return true
	}
	return false
}

func encodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// The native buffer is freed on Close, so the bytes must be copied out.
	chunk := make([]byte, buf.Len())
	copy(chunk, buf.GetBytes())
	return chunk, nil
}
