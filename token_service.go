package gate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	now             func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (ts *TokenServiceImpl) WithClock(clock func() time.Time) *TokenServiceImpl {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// Issue creates a signed token binding identity, roles, the active role and
// the session id. No side effects beyond returning the token string.
func (ts *TokenServiceImpl) Issue(identity string, roles []string, activeRole, sessionID string) (string, error) {
	now := ts.now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity,
			Audience:  aud,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UserRoles: roles,
		Active:    activeRole,
	}

	if err := claims.CheckInvariants(); err != nil {
		return "", err
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Validate parses and validates a token string. Checks run in a fixed order:
// structure, signature, expiry, issuer, audience. The first failure decides
// the internal reason, but every reason surfaces as the same generic
// ErrAuthenticationFailed so a caller cannot probe which check rejected it.
func (ts *TokenServiceImpl) Validate(tokenString string) (AccessClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return nil, ts.rejected(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrAuthenticationFailed
	}

	if err := claims.CheckInvariants(); err != nil {
		return nil, ts.rejected(err)
	}

	return claims, nil
}

// rejected logs the real reason and returns the collapsed error. The cause
// stays server-side only.
func (ts *TokenServiceImpl) rejected(cause error) error {
	reason := "malformed"
	switch {
	case errors.Is(cause, jwt.ErrTokenExpired):
		reason = "expired"
	case errors.Is(cause, jwt.ErrTokenSignatureInvalid):
		reason = "bad_signature"
	case errors.Is(cause, jwt.ErrTokenInvalidIssuer):
		reason = "wrong_issuer"
	case errors.Is(cause, jwt.ErrTokenInvalidAudience):
		reason = "wrong_audience"
	}

	ts.logger.Debug("TokenService validate rejected token", "reason", reason, "error", cause)

	return errors.Wrap(cause, ErrAuthenticationFailed.Category, ErrAuthenticationFailed.Message).
		WithTextCode(ErrAuthenticationFailed.TextCode).
		WithCode(errors.CodeUnauthorized).
		WithMetadata(map[string]any{"reason": reason})
}
