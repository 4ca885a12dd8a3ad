package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/middleware"
	"github.com/mansoorceksport/liftlog/internal/service"
	"github.com/mansoorceksport/liftlog/internal/telemetry"
)

// HistoryHandler handles workout history and analytics requests
type HistoryHandler struct {
	historyService *service.HistoryService
	coachService   *service.CoachService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *service.HistoryService, coachService *service.CoachService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		coachService:   coachService,
	}
}

// Record handles POST /v1/me/histories for clients that map the session themselves
func (h *HistoryHandler) Record(c *fiber.Ctx) error {
	var record domain.WorkoutHistoryRecord
	if err := c.BodyParser(&record); err != nil {
		return badRequest(c, "Invalid body")
	}
	record.ID = ""
	record.UserID = middleware.GetUserID(c)
	if record.ExecutedAt.IsZero() {
		return badRequest(c, "executedAt is required")
	}

	if err := h.historyService.Record(c.UserContext(), &record); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// ListMine handles GET /v1/me/histories
func (h *HistoryHandler) ListMine(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	filter.UserID = middleware.GetUserID(c)

	histories, err := h.historyService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    histories,
	})
}

// GetMine handles GET /v1/me/histories/:id
func (h *HistoryHandler) GetMine(c *fiber.Ctx) error {
	record, err := h.historyService.GetForUser(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// MyAnalytics handles GET /v1/me/analytics
func (h *HistoryHandler) MyAnalytics(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	filter.UserID = middleware.GetUserID(c)
	tagFilter(c, filter)

	analytics, err := h.historyService.Analytics(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    analytics,
	})
}

// --- Coach ---

// WorkoutHistories handles GET /v1/pro/workouts/:id/histories
func (h *HistoryHandler) WorkoutHistories(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	histories, err := h.coachService.WorkoutHistories(c.UserContext(), middleware.GetUserID(c), c.Params("id"), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    histories,
	})
}

// ClientAnalytics handles GET /v1/pro/clients/:id/analytics
func (h *HistoryHandler) ClientAnalytics(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	tagFilter(c, filter)

	analytics, err := h.coachService.ClientAnalytics(c.UserContext(), middleware.GetUserID(c), c.Params("id"), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    analytics,
	})
}

// ClientOverview handles GET /v1/pro/clients/overview?member_ids=a,b
func (h *HistoryHandler) ClientOverview(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var memberIDs []string
	for _, id := range strings.Split(c.Query("member_ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			memberIDs = append(memberIDs, id)
		}
	}

	overviews, err := h.coachService.CoachOverview(c.UserContext(), middleware.GetUserID(c), memberIDs, filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    overviews,
	})
}

func tagFilter(c *fiber.Ctx, filter domain.HistoryFilter) {
	if filter.ExerciseID != "" {
		telemetry.SetSpanAttribute(c, "filter.exercise_id", filter.ExerciseID)
	}
	if filter.ExerciseName != "" {
		telemetry.SetSpanAttribute(c, "filter.exercise_name", filter.ExerciseName)
	}
}
