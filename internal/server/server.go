// Package server exposes the task tracker over HTTP using Fiber.
//
// Routes answer with plain-text bodies:
//
//	GET    /list/:i         tasks 0 through i, one line each
//	POST   /add             JSON {"title", "body"}
//	DELETE /rm/:index       remove a task
//	PUT    /complete/:index mark a task finished
//	GET    /finished        finished tasks with completion dates
//	GET    /health          liveness check
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nibzard/tasktrack/internal/todo"
)

// Tracker is the set of task operations the server exposes.
type Tracker interface {
	ListTasks(ctx context.Context, bound int) ([]todo.Entry, error)
	AddTask(ctx context.Context, title, body string) (todo.Outcome, error)
	RemoveTask(ctx context.Context, index int) (todo.Outcome, error)
	CompleteTask(ctx context.Context, index int) (todo.Outcome, error)
	ListFinished(ctx context.Context) ([]todo.FinishedEntry, error)
}

// Options configures a Server.
type Options struct {
	Addr   string
	Logger *log.Logger
	// StartupWait is how long Start waits for an immediate listen failure.
	StartupWait time.Duration
}

// Server is the HTTP front end for a Tracker.
type Server struct {
	app     *fiber.App
	tracker Tracker
	addr    string
	logger  *log.Logger
	wait    time.Duration
}

// New creates a server with all routes registered. It does not listen.
func New(t Tracker, opts Options) *Server {
	s := &Server{
		tracker: t,
		addr:    opts.Addr,
		logger:  opts.Logger,
		wait:    opts.StartupWait,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.wait <= 0 {
		s.wait = 100 * time.Millisecond
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tasktrack",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestID)
	s.app.Use(s.accessLog)
	s.registerRoutes()
	return s
}

// App returns the underlying Fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.health)
	s.app.Get("/list/:i", s.listTasks)
	s.app.Post("/add", s.addTask)
	s.app.Delete("/rm/:index", s.removeTask)
	s.app.Put("/complete/:index", s.completeTask)
	s.app.Get("/finished", s.listFinished)
}

// Start begins listening in the background. It returns an error when the
// listener fails immediately, for example because the port is in use.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(s.wait):
		s.logger.Info("HTTP server started", "addr", s.addr)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// errorHandler renders Fiber errors as plain text and hides everything else
// behind a generic 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("HTTP error", "code", code, "path", c.Path(), "request_id", requestIDFrom(c), "err", err)
	}
	return c.Status(code).SendString(message)
}
