package gate

import (
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced alongside structured errors.
const (
	TextCodeNoToken          = "NO_TOKEN"
	TextCodeAuthFailed       = "AUTHENTICATION_FAILED"
	TextCodeSessionInvalid   = "SESSION_INVALID"
	TextCodeAccountBlocked   = "ACCOUNT_BLOCKED"
	TextCodeAccessDenied     = "ACCESS_DENIED"
	TextCodeInfraUnavailable = "INFRA_UNAVAILABLE"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
)

// ErrNoToken is returned when a protected request carries no bearer token.
var ErrNoToken = errors.New("missing or malformed authorization token", errors.CategoryAuth).
	WithTextCode(TextCodeNoToken).
	WithCode(errors.CodeUnauthorized)

// ErrAuthenticationFailed is the single error returned for any token
// validation failure. Malformed, expired, bad signature, wrong issuer and
// wrong audience all collapse into it so the response never discloses which
// check rejected the token.
var ErrAuthenticationFailed = errors.New("authentication failed", errors.CategoryAuth).
	WithTextCode(TextCodeAuthFailed).
	WithCode(errors.CodeUnauthorized)

// ErrSessionInvalid is returned when a token is valid but its session has
// been revoked or superseded.
var ErrSessionInvalid = errors.New("session is no longer valid", errors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrAuthorizationDenied is returned when the permission matrix or the
// ownership check rejects an operation.
var ErrAuthorizationDenied = errors.New("operation not permitted", errors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(errors.CodeForbidden)

// ErrInfraUnavailable is returned when the shared store cannot be reached.
// Callers must treat it as a denial, never as an implicit allow.
var ErrInfraUnavailable = errors.New("authentication backend unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeInfraUnavailable).
	WithCode(errors.CodeInternal)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword signals a failed credential comparison.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountSuspended blocks authentication for suspended accounts.
var ErrAccountSuspended = errors.New("account is suspended", errors.CategoryAuth).
	WithTextCode("ACCOUNT_SUSPENDED").
	WithCode(errors.CodeUnauthorized)

// ErrAccountBanned blocks authentication for banned accounts.
var ErrAccountBanned = errors.New("account is banned", errors.CategoryAuth).
	WithTextCode("ACCOUNT_BANNED").
	WithCode(errors.CodeUnauthorized)

// ErrAccountPending blocks authentication until the account is activated.
var ErrAccountPending = errors.New("account is pending activation", errors.CategoryAuth).
	WithTextCode("ACCOUNT_PENDING").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty required inputs.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrPasswordTooLong rejects passwords beyond the bcrypt input limit.
var ErrPasswordTooLong = errors.New("password exceeds the maximum supported length", errors.CategoryBadInput).
	WithTextCode("PASSWORD_TOO_LONG").
	WithCode(errors.CodeBadRequest)

// NewAccountBlockedError builds the lockout error for a blocked identity.
// The remaining duration is part of the message so a client can tell the
// user how long to wait, and is mirrored in metadata for programmatic use.
func NewAccountBlockedError(remaining time.Duration) *errors.Error {
	secs := int(remaining.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return errors.New(
		fmt.Sprintf("account temporarily blocked, retry in %s", formatRemaining(secs)),
		errors.CategoryRateLimit,
	).
		WithTextCode(TextCodeAccountBlocked).
		WithMetadata(map[string]any{"remaining_seconds": secs})
}

// NewAuthorizationDeniedError reports a matrix denial with the document's
// current status as context. Rule contents stay internal.
func NewAuthorizationDeniedError(status string) *errors.Error {
	return errors.New(
		fmt.Sprintf("operation not permitted while document is %q", status),
		errors.CategoryAuthz,
	).
		WithTextCode(TextCodeAccessDenied).
		WithCode(errors.CodeForbidden).
		WithMetadata(map[string]any{"current_status": status})
}

// IsAccountBlocked checks whether err carries the lockout text code.
func IsAccountBlocked(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeAccountBlocked
}

// BlockedRemainingSeconds extracts the remaining lockout from a blocked
// error, returning 0 when err is not a lockout error.
func BlockedRemainingSeconds(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return 0
	}
	if richErr.TextCode != TextCodeAccountBlocked {
		return 0
	}
	if secs, ok := richErr.Metadata["remaining_seconds"].(int); ok {
		return secs
	}
	return 0
}

func formatRemaining(secs int) string {
	if secs >= 60 {
		return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}
