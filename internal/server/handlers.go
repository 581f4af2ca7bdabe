package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nibzard/tasktrack/internal/todo"
	"github.com/nibzard/tasktrack/internal/tracker"
)

// addRequest is the POST /add body. Other task fields a client sends, such
// as completed or creation_date, are ignored.
type addRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// listTasks handles GET /list/:i.
func (s *Server) listTasks(c *fiber.Ctx) error {
	bound, err := indexParam(c, "i")
	if err != nil {
		return err
	}
	entries, err := s.tracker.ListTasks(c.UserContext(), bound)
	if err != nil {
		return s.fail(c, "list", err)
	}
	return c.SendString(tracker.FormatList(entries))
}

// addTask handles POST /add.
func (s *Server) addTask(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	out, err := s.tracker.AddTask(c.UserContext(), req.Title, req.Body)
	if err != nil {
		return s.fail(c, "add", err)
	}
	return c.SendString(out.Message())
}

// removeTask handles DELETE /rm/:index.
func (s *Server) removeTask(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	out, err := s.tracker.RemoveTask(c.UserContext(), index)
	if err != nil {
		return s.fail(c, "remove", err)
	}
	return c.SendString(out.Message())
}

// completeTask handles PUT /complete/:index.
func (s *Server) completeTask(c *fiber.Ctx) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	out, err := s.tracker.CompleteTask(c.UserContext(), index)
	if err != nil {
		return s.fail(c, "complete", err)
	}
	return c.SendString(out.Message())
}

// listFinished handles GET /finished.
func (s *Server) listFinished(c *fiber.Ctx) error {
	entries, err := s.tracker.ListFinished(c.UserContext())
	if err != nil {
		return s.fail(c, "finished", err)
	}
	return c.SendString(tracker.FormatFinished(entries))
}

// indexParam parses a non-negative integer path parameter.
func indexParam(c *fiber.Ctx, name string) (int, error) {
	raw := c.Params(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid index: "+raw)
	}
	return n, nil
}

// fail maps an operation error to a response. Client mistakes become 400
// and write conflicts 409. Storage failures are logged and answered with a
// bare 500.
func (s *Server) fail(c *fiber.Ctx, op string, err error) error {
	if errors.Is(err, tracker.ErrInvalidTask) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if errors.Is(err, tracker.ErrConflict) {
		s.logger.Warn("task operation conflicted", "op", op, "request_id", requestIDFrom(c), "err", err)
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	fields := []any{"op", op, "request_id", requestIDFrom(c), "err", err}
	var pe *tracker.PersistError
	var fe *todo.FormatError
	switch {
	case errors.As(err, &pe):
		fields = append(fields, "kind", "persist", "outcome", pe.Outcome.Kind)
	case errors.As(err, &fe):
		fields = append(fields, "kind", "format", "path", fe.Path)
	}
	s.logger.Error("task operation failed", fields...)
	return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
}
