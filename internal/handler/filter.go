package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/service"
)

const maxLimit = 500

// parseHistoryFilter reads exercise_id, exercise_name, from, to, limit and offset
func parseHistoryFilter(c *fiber.Ctx) (domain.HistoryFilter, error) {
	filter := domain.HistoryFilter{
		ExerciseID:   strings.TrimSpace(c.Query("exercise_id")),
		ExerciseName: strings.TrimSpace(c.Query("exercise_name")),
	}

	var err error
	if filter.DateFrom, err = service.ParseDateBound(c.Query("from"), false); err != nil {
		return filter, fmt.Errorf("invalid from: %w", err)
	}
	if filter.DateTo, err = service.ParseDateBound(c.Query("to"), true); err != nil {
		return filter, fmt.Errorf("invalid to: %w", err)
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, fmt.Errorf("to is before from")
	}

	if filter.Limit, err = parseNonNegative(c.Query("limit")); err != nil {
		return filter, fmt.Errorf("invalid limit: %w", err)
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset, err = parseNonNegative(c.Query("offset")); err != nil {
		return filter, fmt.Errorf("invalid offset: %w", err)
	}

	return filter, nil
}

func parseNonNegative(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected a non-negative integer, got %q", raw)
	}
	return n, nil
}
