package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nibzard/tasktrack/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDLocal = "request_id"

// requestID tags every request with an ID, reusing a client-supplied one. The
// ID is exposed on the response and on the user context for the journal.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.New().String()
	}
	c.Locals(requestIDLocal, id)
	c.Set(RequestIDHeader, id)
	c.SetUserContext(logging.WithRequestID(c.UserContext(), id))
	return c.Next()
}

func requestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// Let the error handler set the final status before logging.
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start),
		"request_id", requestIDFrom(c),
	)
	return nil
}
