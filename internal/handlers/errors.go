package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/services"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrInvalidInput, fiber.StatusBadRequest, "invalid_input"},
	{services.ErrInvalidStatus, fiber.StatusBadRequest, "invalid_status"},
	{services.ErrUnauthorized, fiber.StatusUnauthorized, "unauthorized"},
	{services.ErrForbidden, fiber.StatusForbidden, "forbidden"},
	{services.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{services.ErrAccountExists, fiber.StatusConflict, "account_exists"},
	{services.ErrOrphanedAccount, fiber.StatusConflict, "orphaned_account"},
	{services.ErrDuplicateRequest, fiber.StatusConflict, "duplicate_request"},
	{services.ErrAlreadyResolved, fiber.StatusConflict, "already_resolved"},
	{services.ErrUpstreamUnavailable, fiber.StatusServiceUnavailable, "upstream_unavailable"},
}

// writeError renders a service error as the JSON error body. Unknown errors
// are logged and hidden behind a 500.
func writeError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Error: true, Message: err.Error()}

	var accErr *services.AccountError
	var valErr *dto.ValidationError
	switch {
	case errors.As(err, &accErr):
		resp.Details = accErr
	case errors.As(err, &valErr):
		resp.Details = valErr.Fields
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			resp.Code = m.code
			if m.status >= fiber.StatusInternalServerError {
				slog.Error("upstream failure", "method", c.Method(), "path", c.Path(), "error", err)
				resp.Message = "Service temporarily unavailable, please retry"
			}
			return c.Status(m.status).JSON(resp)
		}
	}

	slog.Error("unhandled service error", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message, Code: "invalid_input",
	})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", services.ErrInvalidInput, param)
	}
	return id, nil
}
