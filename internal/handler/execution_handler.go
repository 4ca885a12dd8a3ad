package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/middleware"
	"github.com/mansoorceksport/liftlog/internal/service"
)

// ExecutionHandler exposes the live workout a member is performing
type ExecutionHandler struct {
	executionService *service.ExecutionService
}

func NewExecutionHandler(executionService *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

type startExecutionRequest struct {
	WorkoutID        string `json:"workoutId"`
	TrainingDayOrder int    `json:"trainingDayOrder"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// Start handles POST /v1/me/executions
func (h *ExecutionHandler) Start(c *fiber.Ctx) error {
	var req startExecutionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if req.WorkoutID == "" {
		return badRequest(c, "workoutId is required")
	}

	session, err := h.executionService.Start(c.UserContext(), middleware.GetUserID(c), req.WorkoutID, req.TrainingDayOrder)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// Active handles GET /v1/me/executions/active
func (h *ExecutionHandler) Active(c *fiber.Ctx) error {
	session, err := h.executionService.Active(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// LogSet handles PUT /v1/me/executions/active/exercises/:index/sets
func (h *ExecutionHandler) LogSet(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "Invalid exercise index")
	}

	var set domain.RawSet
	if err := c.BodyParser(&set); err != nil {
		return badRequest(c, "Invalid body")
	}
	if set.Weight < 0 || set.Reps < 0 {
		return badRequest(c, "weight and reps cannot be negative")
	}

	session, err := h.executionService.LogSet(c.UserContext(), middleware.GetUserID(c), index, set)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// SetNotes handles PUT /v1/me/executions/active/exercises/:index/notes
func (h *ExecutionHandler) SetNotes(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "Invalid exercise index")
	}

	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	session, err := h.executionService.SetExerciseNotes(c.UserContext(), middleware.GetUserID(c), index, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

// Finish handles POST /v1/me/executions/active/finish. The body is optional.
func (h *ExecutionHandler) Finish(c *fiber.Ctx) error {
	var req notesRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid body")
		}
	}

	record, err := h.executionService.Finish(c.UserContext(), middleware.GetUserID(c), req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// Abandon handles DELETE /v1/me/executions/active
func (h *ExecutionHandler) Abandon(c *fiber.Ctx) error {
	if err := h.executionService.Abandon(c.UserContext(), middleware.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
