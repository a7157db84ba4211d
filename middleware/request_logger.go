package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the c.Locals key holding the request id.
const RequestIDKey = "requestid"

// HTTPRecorder counts served requests.
type HTTPRecorder interface {
	RecordHTTP(method string, status int)
}

// RequestLogger creates a new middleware handler for structured request logging with Logrus.
// Errors from the chain are passed to the app's ErrorHandler before logging.
// recorder may be nil.
func RequestLogger(logger logrus.FieldLogger, recorder HTTPRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		// Set requestID in locals so handlers and the error envelope can use it
		c.Locals(RequestIDKey, requestID)
		c.Set(fiber.HeaderXRequestID, requestID)

		// Let Fiber process the request
		err := c.Next()

		// Write the error response here, as fiber's logger does, so the
		// logged and recorded status is the one the client receives.
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()

		logEntry := logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.IP(),
			"user_agent":  string(c.Request().Header.UserAgent()),
		})
		if s := SessionFrom(c); s != nil {
			logEntry = logEntry.WithField("user_id", s.UserID)
		}

		if err != nil {
			logEntry.WithField("error", err.Error()).Error("Request processing failed")
		} else if statusCode >= 500 {
			logEntry.Error("Request completed with server error")
		} else if statusCode >= 400 {
			logEntry.Warn("Request completed with client error")
		} else {
			logEntry.Info("Request completed successfully")
		}

		if recorder != nil {
			recorder.RecordHTTP(c.Method(), statusCode)
		}
		return nil
	}
}

// RequestIDFrom returns the request id assigned by RequestLogger, or "".
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}
