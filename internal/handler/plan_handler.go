package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/middleware"
	"github.com/mansoorceksport/liftlog/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Member ---

// ListMine handles GET /v1/me/plans
func (h *PlanHandler) ListMine(c *fiber.Ctx) error {
	plans, err := h.planService.ListForMember(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plans,
	})
}

// GetMine handles GET /v1/me/plans/:id
func (h *PlanHandler) GetMine(c *fiber.Ctx) error {
	plan, err := h.planService.GetForMember(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

// --- Coach CRUD ---

func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var req domain.WorkoutPlan
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if err := h.planService.Create(c.UserContext(), middleware.GetUserID(c), middleware.GetTenantID(c), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    req,
	})
}

func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.planService.ListForCoach(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plans,
	})
}

func (h *PlanHandler) Get(c *fiber.Ctx) error {
	plan, err := h.planService.GetForCoach(c.UserContext(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

func (h *PlanHandler) Update(c *fiber.Ctx) error {
	var req domain.WorkoutPlan
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	plan, err := h.planService.Update(c.UserContext(), middleware.GetUserID(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    plan,
	})
}

func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	if err := h.planService.Delete(c.UserContext(), middleware.GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "plan deleted",
	})
}
