// Package api serves project boards over HTTP and pushes live board
// snapshots over WebSocket.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mesh-intelligence/slate/internal/intake"
	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/internal/logging"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Analyzer analyzes single scenes and whole scripts. *analysis.Analyzer
// satisfies it.
type Analyzer interface {
	kanban.Analyzer
	intake.ScriptParser
}

// Server holds one board engine per project, started on first use.
type Server struct {
	store    types.Store
	analyzer Analyzer
	maxChars int
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	boards map[string]*board
}

// board is a live project: its engine and the sockets watching it.
type board struct {
	engine *kanban.Engine
	feeds  *feeds
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer enables scene analysis and AI intake.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxChars caps the script text sent for AI intake.
func WithMaxChars(n int) Option {
	return func(s *Server) { s.maxChars = n }
}

// NewServer creates a server over an attached store.
func NewServer(store types.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: logging.NewNop(),
		boards: make(map[string]*board),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String(logging.FieldComponent, "api"))
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { respond(c, http.StatusOK, gin.H{"status": "ok"}) })

	r.GET("/api/projects", s.listProjects)
	r.POST("/api/projects", s.createProject)

	p := r.Group("/api/projects/:project")
	p.GET("", s.getProject)
	p.PATCH("", s.renameProject)
	p.DELETE("", s.deleteProject)
	p.GET("/board", s.getBoard)
	p.GET("/characters", s.getCharacters)
	p.GET("/schedule", s.getSchedule)
	p.GET("/stats", s.getStats)

	p.POST("/scenes", s.createScene)
	p.GET("/scenes/:id", s.getScene)
	p.PATCH("/scenes/:id", s.updateScene)
	p.POST("/scenes/:id/move", s.moveScene)
	p.POST("/scenes/:id/duplicate", s.duplicateScene)
	p.POST("/scenes/:id/analyze", s.analyzeScene)
	p.DELETE("/scenes/:id", s.deleteScene)

	p.GET("/columns", s.listColumns)
	p.POST("/columns", s.addColumn)

	p.GET("/fields", s.listFields)
	p.POST("/fields", s.createField)
	p.DELETE("/fields/:id", s.archiveField)

	p.POST("/intake", s.intake)
	p.GET("/ws", s.watch)
	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("serving", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close stops every engine and disconnects every socket.
func (s *Server) Close() error {
	s.mu.Lock()
	boards := s.boards
	s.boards = make(map[string]*board)
	s.mu.Unlock()

	var firstErr error
	for _, b := range boards {
		b.feeds.closeAll()
		if err := b.engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// board returns the project's started engine, starting it if needed.
func (s *Server) board(ctx context.Context, projectID string) (*board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boards[projectID]; ok {
		return b, nil
	}

	f := newFeeds()
	opts := []kanban.Option{
		kanban.WithLogger(s.logger),
		kanban.WithAlerter(kanban.AlertFunc(f.alert)),
	}
	if s.analyzer != nil {
		opts = append(opts, kanban.WithAnalyzer(s.analyzer))
	}
	engine := kanban.New(projectID, s.store, opts...)
	if err := engine.Start(ctx); err != nil {
		return nil, fmt.Errorf("start board %s: %w", projectID, err)
	}
	b := &board{engine: engine, feeds: f}
	s.boards[projectID] = b
	return b, nil
}

// dropBoard stops a project's engine and disconnects its sockets.
func (s *Server) dropBoard(projectID string) {
	s.mu.Lock()
	b, ok := s.boards[projectID]
	delete(s.boards, projectID)
	s.mu.Unlock()
	if !ok {
		return
	}
	b.feeds.closeAll()
	if err := b.engine.Close(); err != nil {
		s.logger.Warn("close board failed", slog.String("project", projectID), slog.Any("error", err))
	}
}

// withBoard resolves the :project parameter for a handler.
func (s *Server) withBoard(c *gin.Context) (*board, bool) {
	b, err := s.board(c.Request.Context(), c.Param("project"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return b, true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
