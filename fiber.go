package gate

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// GetFiberClaims reads the access claims the gate middleware stored in the
// request locals when running on a fiber engine.
func GetFiberClaims(c *fiber.Ctx, contextKey string) (AccessClaims, error) {
	if contextKey == "" {
		contextKey = "claims"
	}

	raw := c.Locals(contextKey)
	if raw == nil {
		return nil, ErrNoToken
	}

	claims, ok := raw.(AccessClaims)
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	return claims, nil
}

// NewFiberErrorHandler builds an application level error handler that keeps
// the failure envelope consistent with the router handlers. Wire it to
// fiber.Config.ErrorHandler.
func NewFiberErrorHandler(logger Logger) func(*fiber.Ctx, error) error {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status := StatusForError(err)
		message := "An unexpected server error occurred"

		var richErr *errors.Error
		if errors.As(err, &richErr) {
			message = richErr.Message
		} else if ferr, ok := err.(*fiber.Error); ok {
			status = ferr.Code
			message = ferr.Message
		}

		logger.Debug("request failed", "status", status, "error", message)

		return c.Status(status).JSON(Envelope{
			Status:  "failure",
			Message: message,
		})
	}
}
