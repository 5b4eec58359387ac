package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

const (
	// TokenHeader carries the session token issued at sign-in.
	TokenHeader = "X-Token"
	// UserIDLocalKey is the Fiber locals key holding the authenticated user id.
	UserIDLocalKey = "user_id"
)

// TokenResolver maps a session token to a user id.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (userID string, ok bool, err error)
}

// Session resolves the X-Token header, if any, and stores the user id in locals.
// It never rejects a request: routes that need a user check UserID themselves,
// because some routes (public content) also serve anonymous callers.
func Session(resolver TokenResolver, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return c.Next()
		}
		userID, ok, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			log.ErrorContext(c.UserContext(), "session lookup failed", "request_id", rid, "error", err)
			return fiber.ErrInternalServerError
		}
		if ok {
			c.Locals(UserIDLocalKey, userID)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
