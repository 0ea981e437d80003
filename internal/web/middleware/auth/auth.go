package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/token"
)

// ContextKey is the fiber locals key holding the caller's *authz.Context.
const ContextKey = "authContext"

const bearerPrefix = "Bearer "

// New creates the bearer token middleware. A request without a valid token,
// or whose token no longer resolves to a live user, fails with 401. The
// token being cryptographically valid is not enough: a user deleted after
// issuance is rejected here.
func New(tokens *token.Service, resolver *authz.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return unauthorized(c)
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			return unauthorized(c)
		}

		ctx, err := resolver.Resolve(userID)
		if err != nil {
			// deleted or unknown user, not a 404
			return unauthorized(c)
		}

		c.Locals(ContextKey, ctx)

		return c.Next()
	}
}

// RequireAdmin gates a route on the resolved context being an admin.
// Must run after New.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := FromLocals(c)
		if ctx == nil {
			return unauthorized(c)
		}

		if !ctx.Admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin required",
			})
		}

		return c.Next()
	}
}

// FromLocals returns the authorization context stored by New, or nil if the
// middleware did not run.
func FromLocals(c *fiber.Ctx) *authz.Context {
	ctx, _ := c.Locals(ContextKey).(*authz.Context)

	return ctx
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthenticated",
	})
}
