package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/middleware"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code      string                 `json:"code" example:"CONFLICT"`
	Message   string                 `json:"message" example:"Job is already completed"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp" example:"2026-01-02T15:04:05Z"`
	RequestID string                 `json:"request_id"`
}

// Now is the clock used for envelope timestamps.
var Now = time.Now

// RespondWithError sends err as the uniform JSON error envelope. Errors that
// are not *apperr.Error are reported as INTERNAL_ERROR without their text.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr := apperr.From(err)
	return c.Status(appErr.Kind.HTTPStatus()).JSON(ErrorBody{Error: ErrorDetail{
		Code:      appErr.Kind.Code(),
		Message:   appErr.Message,
		Details:   appErr.Details,
		Timestamp: Now().UTC().Format(time.RFC3339),
		RequestID: middleware.RequestIDFrom(c),
	}})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// ErrorHandler is the Fiber error handler: it turns errors that escape the
// handlers (routing misses, body limits, panics caught by recover) into the
// uniform envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return RespondWithError(c, fromFiber(fe))
	}
	return RespondWithError(c, err)
}

func fromFiber(fe *fiber.Error) *apperr.Error {
	switch fe.Code {
	case fiber.StatusNotFound:
		return apperr.NotFound(fe.Message)
	case fiber.StatusUnauthorized:
		return apperr.Unauthorized(fe.Message)
	case fiber.StatusForbidden:
		return apperr.Forbidden(fe.Message)
	}
	if fe.Code >= 400 && fe.Code < 500 {
		return apperr.Validation(fe.Message)
	}
	return apperr.Wrap(apperr.KindInternal, fe, "An unexpected error occurred")
}
