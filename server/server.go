package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/detectcam/dc-go/pipeline"
	"github.com/detectcam/dc-go/service/lgr"
)

// Server is the streaming/query surface: the annotated MJPEG feed, the
// stats snapshot and the operational endpoints.
type Server struct {
	svcs          pipeline.ServicesFactory
	sourceFactory pipeline.SourceFactory
	alertStream   chan pipeline.AlertData
	engine        *gin.Engine
}

func New(svcs pipeline.ServicesFactory, sourceFactory pipeline.SourceFactory, alertStream chan pipeline.AlertData) *Server {
	if os.Getenv(gin.EnvGinMode) == "" && os.Getenv("RUN_TIME_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(requestLogger())
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		svcs:          svcs,
		sourceFactory: sourceFactory,
		alertStream:   alertStream,
		engine:        engine,
	}
	s.routes()
	return s
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/video_feed", s.handleVideoFeed)
	s.engine.GET("/stats", s.handleStats)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.svcs.Metrics.Handler()))
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// handleVideoFeed opens one processing loop per request and streams its
// chunks as multipart parts until the loop stops or the client
// disconnects. Disconnect cancels the request context, which stops the
// loop and releases the source.
func (s *Server) handleVideoFeed(c *gin.Context) {
	source, err := s.sourceFactory()
	if err != nil {
		lgr.Logger.Error(
			"error opening frame source",
			lgr.Err(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "video source unavailable"})
		return
	}

	stream := pipeline.NewStream(s.svcs, source, s.alertStream)
	defer stream.Close()

	chunks := stream.Run(c.Request.Context())

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	w := c.Writer
	for chunk := range chunks {
		if _, err := w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n")); err != nil {
			return
		}
		if _, err := w.Write(chunk); err != nil {
			return
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return
		}
		w.Flush()
	}
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svcs.StatsSvc.Read())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dc-go",
	})
}

func requestLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/metrics"},
		Formatter: func(param gin.LogFormatterParams) string {
			lgr.Logger.Info("http request",
				slog.String("method", param.Method),
				slog.String("path", param.Path),
				slog.Int("status", param.StatusCode),
				slog.Duration("latency", param.Latency),
				slog.String("clientIP", param.ClientIP),
			)
			return ""
		},
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Cache-Control, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
