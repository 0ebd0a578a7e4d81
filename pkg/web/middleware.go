package web

import (
	"context"
	"strings"

	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const userIDKey = "userID"

// Authenticator resolves a bearer token to a user ID.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireToken rejects requests without a valid "Authorization: Bearer" token
// and stores the resolved user ID for the handlers.
func RequireToken(auth Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return unauthorized(c, "missing bearer token")
		}

		userID, err := auth.Authenticate(c.Context(), strings.TrimSpace(token))
		if err != nil {
			return handleServiceError(c, err)
		}

		c.Locals(userIDKey, userID)

		return c.Next()
	}
}

// currentUser returns the authenticated user, or "" when auth is disabled.
func currentUser(c fiber.Ctx) string {
	userID, _ := c.Locals(userIDKey).(string)

	return userID
}

// Tracing opens a span per request and passes its context to the handlers.
func Tracing(tracer trace.Tracer) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, span := otelhelper.StartSpan(c.Context(), tracer, "api "+c.Method(),
			attribute.String(otelhelper.RequestPathKey, c.Path()),
		)
		defer span.End()

		c.SetContext(ctx)

		err := c.Next()

		span.SetAttributes(attribute.Int(otelhelper.StatusCodeKey, c.Response().StatusCode()))
		otelhelper.SetError(span, err)

		return err
	}
}
