package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tablesink/pkg/model"
	"tablesink/pkg/queue"
	"tablesink/pkg/settings"
	"tablesink/pkg/store"
)

// HTTPServer accepts log records over HTTP and buffers them in the queue.
type HTTPServer struct {
	srv   *http.Server
	queue queue.Queue
	store store.Store
	log   *zap.Logger
}

type recordRequest struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Source  string            `json:"source"`
	Fields  map[string]string `json:"fields"`
}

type batchRequest struct {
	Records []recordRequest `json:"records" binding:"required,min=1,dive"`
}

// NewHTTPServer builds the ingest API server.
func NewHTTPServer(cfg *settings.Server, q queue.Queue, st store.Store, log *zap.Logger) *HTTPServer {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &HTTPServer{
		queue: q,
		store: st,
		log:   log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	v1 := engine.Group("/v1")
	v1.POST("/records", s.postRecord)
	v1.POST("/records/batch", s.postBatch)
	engine.GET("/healthz", s.health)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *HTTPServer) postRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), req.toRecord()); err != nil {
		s.log.Error("failed to enqueue record", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": 1})
}

func (s *HTTPServer) postBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for i := range req.Records {
		if err := s.queue.Enqueue(c.Request.Context(), req.Records[i].toRecord()); err != nil {
			s.log.Error("failed to enqueue record", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable", "accepted": i})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.Records)})
}

func (s *HTTPServer) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *recordRequest) toRecord() *model.Record {
	rec := &model.Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Source:  r.Source,
		Fields:  r.Fields,
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	return rec
}
