package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ErrorHandler recovers panics, maps every error to a DomainError and
// renders the wire-contract error body.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()),
				)
				err = renderError(c, metrics, apperrors.NewInternalError(fmt.Errorf("panic: %v", r)))
			}
		}()

		if err = c.Next(); err != nil {
			return renderError(c, metrics, err)
		}
		return nil
	}
}

func renderError(c *fiber.Ctx, metrics *observability.Metrics, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Method(), c.Route().Path, domainErr.Code)

	body := fiber.Map{"error": domainErr.Message}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(body)
}

// NotFoundHandler answers unmatched routes.
func NotFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
}
