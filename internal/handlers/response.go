package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/utils"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:   fiber.StatusBadRequest,
	apperr.KindNotFound:     fiber.StatusNotFound,
	apperr.KindConflict:     fiber.StatusConflict,
	apperr.KindTransient:    fiber.StatusServiceUnavailable,
	apperr.KindDependency:   fiber.StatusBadGateway,
	apperr.KindRateLimited:  fiber.StatusTooManyRequests,
	apperr.KindUnauthorized: fiber.StatusUnauthorized,
	apperr.KindFatal:        fiber.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as the failure envelope.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   fe.Message,
			})
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			ae = apperr.Fatal("internal error", err)
		}
		status := StatusFor(ae.Kind)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		body := fiber.Map{
			"success": false,
			"error":   ae.Message,
			"code":    ae.Code,
		}
		if ae.Details != nil {
			body["details"] = ae.Details
		}
		return c.Status(status).JSON(body)
	}
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func paged(c *fiber.Ctx, data interface{}, page utils.Pagination, total int64, counts interface{}) error {
	body := fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": page.Meta(total),
	}
	if counts != nil {
		body["counts"] = counts
	}
	return c.JSON(body)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(param)))
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid %s", param)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
