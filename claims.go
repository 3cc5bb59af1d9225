package gate

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// AccessClaims represents the validated content of an access token
type AccessClaims interface {
	Subject() string
	Roles() []string
	ActiveRole() string
	SessionID() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AccessClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRoles []string `json:"roles,omitempty"`
	Active    string   `json:"active_role,omitempty"`
}

// Verify interface compliance
var _ AccessClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Roles returns every role granted to the subject
func (c *JWTClaims) Roles() []string {
	return c.UserRoles
}

// ActiveRole returns the single role currently in effect
func (c *JWTClaims) ActiveRole() string {
	return c.Active
}

// SessionID returns the jti binding this token to a session record
func (c *JWTClaims) SessionID() string {
	return c.RegisteredClaims.ID
}

// HasRole checks if the subject was granted a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return slices.Contains(c.UserRoles, role)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// CheckInvariants verifies the structural claims contract: the active role
// must be one of the granted roles and expiry must come after issuance.
func (c *JWTClaims) CheckInvariants() error {
	if c.Active == "" || !slices.Contains(c.UserRoles, c.Active) {
		return errors.New("active role is not among granted roles", errors.CategoryValidation).
			WithMetadata(map[string]any{"active_role": c.Active})
	}

	if c.RegisteredClaims.ExpiresAt == nil || c.RegisteredClaims.IssuedAt == nil {
		return errors.New("token is missing temporal claims", errors.CategoryValidation)
	}

	if !c.RegisteredClaims.ExpiresAt.Time.After(c.RegisteredClaims.IssuedAt.Time) {
		return errors.New("token expiry must be after issuance", errors.CategoryValidation)
	}

	if c.RegisteredClaims.ID == "" {
		return errors.New("token is missing a session id", errors.CategoryValidation)
	}

	return nil
}
