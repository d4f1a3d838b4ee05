// Package admin serves the simulator's HTTP API.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/metrics"
	"netenergy-sim/internal/telemetry"
)

// Generic error bodies. Internal details are logged, never returned.
const (
	errNodeData = "Failed to fetch node data"
	errDataLogs = "Failed to fetch data logs"
)

// Source produces fresh snapshots and log batches per request.
type Source interface {
	Snapshot(ctx context.Context) (telemetry.Snapshot, error)
	Logs(ctx context.Context) ([]telemetry.DataLogEntry, error)
}

// Conversation exposes the agent scheduler to polling clients.
type Conversation interface {
	History() []agents.Message
	CurrentAgent() agents.Agent
	Position() int
	Counter() uint64
}

type nodesResponse struct {
	Nodes   []telemetry.NodeReading `json:"nodes"`
	Summary telemetry.FleetSummary  `json:"summary"`
}

type logsResponse struct {
	Logs []telemetry.DataLogEntry `json:"logs"`
}

type messagesResponse struct {
	Messages     []agents.Message `json:"messages"`
	CurrentAgent agents.Agent     `json:"current_agent"`
	Position     int              `json:"position"`
	Tick         uint64           `json:"tick"`
}

// Server wires the API routes onto a gin engine.
type Server struct {
	src     Source
	conv    Conversation
	actions []byte
	metrics *metrics.Metrics
	logger  *slog.Logger
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithConversation enables GET /agents/messages.
func WithConversation(c Conversation) Option { return func(s *Server) { s.conv = c } }

// WithActions serves b verbatim at GET /data/actions.json.
func WithActions(b []byte) Option { return func(s *Server) { s.actions = b } }

// WithMetrics exposes m at GET /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger overrides the request and error logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer builds the engine and registers every route.
func NewServer(src Source, opts ...Option) *Server {
	s := &Server{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(s.requestLogger(), gin.CustomRecovery(s.recovered))
	s.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	s.routes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	for _, prefix := range []string{"", "/api"} {
		s.engine.GET(prefix+"/nodes", s.handleNodes)
		s.engine.GET(prefix+"/data-logs", s.handleDataLogs)
	}
	s.engine.GET("/agents/messages", s.handleMessages)
	s.engine.GET("/data/actions.json", s.handleActions)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleNodes(c *gin.Context) {
	snap, err := guard(func() (telemetry.Snapshot, error) { return s.src.Snapshot(c.Request.Context()) })
	if err != nil {
		s.logger.Error("node data generation failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNodeData})
		return
	}
	c.JSON(http.StatusOK, nodesResponse{Nodes: snap.Nodes, Summary: snap.Summary})
}

func (s *Server) handleDataLogs(c *gin.Context) {
	logs, err := guard(func() ([]telemetry.DataLogEntry, error) { return s.src.Logs(c.Request.Context()) })
	if err != nil {
		s.logger.Error("data log generation failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errDataLogs})
		return
	}
	c.JSON(http.StatusOK, logsResponse{Logs: logs})
}

func (s *Server) handleMessages(c *gin.Context) {
	if s.conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent scheduler not configured"})
		return
	}
	msgs := s.conv.History()
	if msgs == nil {
		msgs = []agents.Message{}
	}
	c.JSON(http.StatusOK, messagesResponse{
		Messages:     msgs,
		CurrentAgent: s.conv.CurrentAgent(),
		Position:     s.conv.Position(),
		Tick:         s.conv.Counter(),
	})
}

func (s *Server) handleActions(c *gin.Context) {
	if s.actions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "actions fixture not configured"})
		return
	}
	c.Data(http.StatusOK, "application/json", s.actions)
}

// guard converts a panic in fn into an error so handlers never write
// partial data.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (s *Server) recovered(c *gin.Context, rec any) {
	s.logger.Error("handler panic", "path", c.Request.URL.Path, "panic", rec)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
