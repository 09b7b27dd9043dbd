// Package api exposes the task store over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/twiced-technology-gmbh/tasktracker/internal/store"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const shutdownTimeout = 5 * time.Second

// MutationFunc is called after every successful mutation.
type MutationFunc func(action string, kind task.Kind, id int)

// Server is the HTTP facade over a store.Manager.
type Server struct {
	store      store.Manager
	router     *gin.Engine
	logger     *log.Logger
	onMutation MutationFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger. The default writes to the
// standard logger's output.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMutationHook registers fn to run after each successful mutation.
func WithMutationHook(fn MutationFunc) Option {
	return func(s *Server) { s.onMutation = fn }
}

// New creates a Server over m.
func New(m store.Manager, opts ...Option) *Server {
	s := &Server{
		store:  m,
		logger: log.New(log.Writer(), "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(requestID(), requestLogger(s.logger), gin.CustomRecoveryWithWriter(io.Discard, s.recover))
	s.router = router
	s.routes()
	return s
}

func (s *Server) routes() {
	for _, r := range []resource{s.tasksResource(), s.epicsResource(), s.subtasksResource()} {
		g := s.router.Group(r.path)
		g.GET("", s.handleList(r))
		g.POST("", s.handleUpsert(r))
		g.DELETE("", s.handleDeleteAll(r))
		g.GET("/:id", s.handleGet(r))
		g.DELETE("/:id", s.handleDelete(r))
	}
	s.router.GET("/epics/:id/subtasks", s.handleEpicSubtasks)
	s.router.GET("/history", s.handleHistory)
	s.router.GET("/prioritized", s.handlePrioritized)

	s.router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "", "Not found", nil)
	})
	s.router.HandleMethodNotAllowed = true
	s.router.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusBadRequest, "", "Unsupported method", nil)
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd // header read timeout
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) recover(c *gin.Context, rec any) {
	s.logger.Printf("[%s] panic: %v", requestIDFrom(c), rec)
	writeError(c, http.StatusInternalServerError, "", "Internal server error", nil)
	c.Abort()
}

func (s *Server) mutated(action string, kind task.Kind, id int) {
	if s.onMutation != nil {
		s.onMutation(action, kind, id)
	}
}
