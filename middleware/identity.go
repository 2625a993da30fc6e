package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
)

// Identity resolves the caller from the Authorization header and stores it
// on the request's user context. A token that cannot be verified is treated
// as an anonymous caller rather than rejected.
func Identity(resolver identity.Resolver, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		token := identity.BearerToken(c.Get(fiber.HeaderAuthorization))

		id, err := resolver.Resolve(ctx, token)
		if err != nil {
			log.WithFields(logrus.Fields{
				"request_id": c.Locals(RequestIDKey),
				"error":      err.Error(),
			}).Warn("Could not resolve caller identity, continuing as anonymous")
			id = nil
		}

		c.SetUserContext(identity.WithIdentity(ctx, id))
		return c.Next()
	}
}
