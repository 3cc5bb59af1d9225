package gate

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultAllowPaths bypass the gate entirely: credential login, password
// reset and API documentation are reachable without a token.
var DefaultAllowPaths = []string{
	"/login",
	"/password-reset",
	"/docs",
	"/swagger",
}

// Envelope is the uniform response body. Failures always carry
// status "failure", a human message, a nil data field and optional
// field-level errors.
type Envelope struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data"`
	Errors  map[string]any `json:"errors"`
}

// LoginRequest is the credential login payload.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate implements payload validation for LoginRequest.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, validation.Length(3, 254), is.PrintableASCII),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
	)
}

// RoleSwitchRequest selects a different active role for the caller.
type RoleSwitchRequest struct {
	Role string `json:"role"`
}

// Validate implements payload validation for RoleSwitchRequest.
func (r RoleSwitchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.Length(1, 64)),
	)
}

// LoginController exposes the credential endpoints. Protected routes are
// the gate middleware's job; only login, logout and role-switch live here.
type LoginController struct {
	auther     *Auther
	cfg        Config
	logger     Logger
	contextKey string
}

// NewLoginController creates the controller for the login surface.
func NewLoginController(auther *Auther, cfg Config) *LoginController {
	return &LoginController{
		auther:     auther,
		cfg:        cfg,
		logger:     defLogger{},
		contextKey: cfg.GetContextKey(),
	}
}

// WithLogger overrides the logger.
func (c *LoginController) WithLogger(logger Logger) *LoginController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes mounts the controller on the given router.
func RegisterRoutes[T any](app router.Router[T], controller *LoginController) {
	app.Post("/login", controller.Login).SetName("gate.login")
	app.Post("/logout", controller.Logout).SetName("gate.logout")
	app.Post("/role-switch", controller.RoleSwitch).SetName("gate.role-switch")
}

// Login handles POST /login.
func (c *LoginController) Login(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return c.fail(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.validationFail(ctx, err)
	}

	token, err := c.auther.Login(ctx.Context(), payload.Identifier, payload.Password, ctx.IP())
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]any{"token": token},
	})
}

// Logout handles POST /logout. It revokes the caller's session; the gate
// middleware already validated the token and stored the claims.
func (c *LoginController) Logout(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, c.contextKey)
	if !ok {
		return c.fail(ctx, ErrNoToken)
	}

	if err := c.auther.Logout(ctx.Context(), claims); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Envelope{
		Status: "success",
	})
}

// RoleSwitch handles POST /role-switch. The new token carries a fresh
// session id, so the previous token stops validating immediately.
func (c *LoginController) RoleSwitch(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, c.contextKey)
	if !ok {
		return c.fail(ctx, ErrNoToken)
	}

	payload := RoleSwitchRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return c.fail(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse role switch payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.validationFail(ctx, err)
	}

	token, err := c.auther.SwitchRole(ctx.Context(), claims, payload.Role)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]any{"token": token},
	})
}

// fail renders the failure envelope with the canonical status mapping:
// 401 authentication/session, 403 authorization, 429 lockout, 500 infra.
// Internal details never reach the body.
func (c *LoginController) fail(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	c.logger.Debug("request failed",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return ctx.JSON(statusForError(richErr), Envelope{
		Status:  "failure",
		Message: richErr.Message,
	})
}

// validationFail maps ozzo field errors into the envelope's errors object.
func (c *LoginController) validationFail(ctx router.Context, err error) error {
	fields := map[string]any{}
	if verrs, ok := err.(validation.Errors); ok {
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
	}

	return ctx.JSON(http.StatusBadRequest, Envelope{
		Status:  "failure",
		Message: "invalid request payload",
		Errors:  fields,
	})
}

// StatusForError exposes the mapping for adapters (e.g. the fiber handler).
func StatusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}
	return statusForError(richErr)
}

func statusForError(richErr *errors.Error) int {
	switch richErr.Category {
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryBadInput, errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		if richErr.Code >= http.StatusBadRequest && richErr.Code <= 599 {
			return richErr.Code
		}
		return http.StatusInternalServerError
	}
}
