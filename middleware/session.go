package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/internal/session"
)

const sessionKey = "session"

// Session resolves the caller from the Authorization bearer token. A missing
// or invalid token leaves the request without a session; authorization
// rejects it later with 401.
func Session(provider session.Provider, logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}

		s, err := provider.SessionFromToken(c.UserContext(), token)
		if err != nil {
			logger.WithError(err).WithField("request_id", RequestIDFrom(c)).Debug("Rejected access token")
			return c.Next()
		}

		c.Locals(sessionKey, s)
		return c.Next()
	}
}

// SessionFrom returns the session of the request, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(sessionKey).(*session.Session)
	return s
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
