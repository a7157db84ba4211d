package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthCheck godoc
// @Summary Health check
// @Description Reports whether the API and its dependencies are reachable.
// @Tags health
// @Produce  json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *ApplicationHandler) HealthCheck(c *fiber.Ctx) error {
	if h.Health != nil {
		if failures := h.Health.Failures(); len(failures) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":       "degraded",
				"message":      "One or more dependencies are unavailable",
				"dependencies": failures,
			})
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "API Gateway is healthy",
	})
}
