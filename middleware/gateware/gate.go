package gateware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization

	// ErrTokenMissing is returned when no bearer token can be extracted.
	ErrTokenMissing = errors.New("missing or malformed authorization token")
	// ErrTokenInvalid is returned when key-material validation rejects a token.
	ErrTokenInvalid = errors.New("invalid or expired authorization token")
	// ErrSessionRevoked is returned when the token's session is no longer active.
	ErrSessionRevoked = errors.New("session is no longer valid")
	// ErrStoreUnavailable is returned when the session store cannot answer.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the gate package.
type TokenValidator interface {
	Validate(tokenString string) (AccessClaims, error)
}

// AccessClaims interface for structured claims without import cycles.
// This mirrors the AccessClaims interface from the gate package.
type AccessClaims interface {
	Subject() string
	Roles() []string
	ActiveRole() string
	SessionID() string
	HasRole(role string) bool
}

// SessionValidator checks that a token's session id is still the active one
// for its subject. This mirrors gate.SessionStore.Validate.
type SessionValidator interface {
	Validate(ctx context.Context, identity, sessionID string) (bool, error)
}

// ValidationListener is invoked after a token and its session have been
// validated but before the request proceeds.
type ValidationListener func(ctx router.Context, claims AccessClaims) error

type Config struct {
	// Filter skips the gate entirely when it returns true. AllowPaths is the
	// declarative version; when both are set either one can skip.
	Filter func(router.Context) bool

	// AllowPaths lists path prefixes that bypass authentication, e.g. the
	// login, password-reset and API documentation routes.
	AllowPaths []string

	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	SigningKey     SigningKey
	SigningKeys    map[string]SigningKey
	ContextKey     string
	TokenLookup    string
	AuthScheme     string
	KeyFunc        jwt.Keyfunc
	JWKSetURLs     []string

	// TokenValidator validates the extracted token. When unset, the gate
	// falls back to key-material validation through KeyFunc, which covers
	// tokens minted by an external issuer (SigningKeys/JWKSetURLs).
	TokenValidator TokenValidator

	// SessionValidator is required: a token whose session has been revoked or
	// superseded must be rejected even while cryptographically valid.
	SessionValidator SessionValidator

	// SessionTimeout bounds each session store call. Elapsing counts as a
	// failure and rejects the request; the gate never fails open.
	SessionTimeout time.Duration

	// RequiredRole specifies an exact role that must be present
	RequiredRole string

	// ContextEnricher is an optional function to propagate claims to the
	// standard Go context after successful validation.
	ContextEnricher func(c context.Context, claims AccessClaims) context.Context

	// ValidationListeners are invoked after token and session validation
	// succeed. Use them for bookkeeping before the request proceeds.
	ValidationListeners []ValidationListener
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New builds the request authentication gate. Stages run strictly in order
// and short-circuit on the first failure: allowlist, token extraction,
// token validation, session validation, context propagation.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.skip(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.validateSession(ctx.Context(), claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
				return cfg.ErrorHandler(ctx, fmt.Errorf("access denied: required role %q not found", cfg.RequiredRole))
			}

			ctx.Locals(cfg.ContextKey, claims)

			// if a context enricher we use it to propagate claims to the standard context
			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				stdCtxWithClaims := cfg.ContextEnricher(stdCtx, claims)
				ctx.SetContext(stdCtxWithClaims)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func (cfg *Config) skip(ctx router.Context) bool {
	if cfg.Filter != nil && cfg.Filter(ctx) {
		return true
	}

	path := ctx.Path()
	for _, allowed := range cfg.AllowPaths {
		if allowed != "" && strings.HasPrefix(path, allowed) {
			return true
		}
	}

	return false
}

// validateSession consults the shared store. Any store error, including a
// timeout, rejects the request: an unreachable store denies, never allows.
func (cfg *Config) validateSession(ctx context.Context, claims AccessClaims) error {
	callCtx, cancel := context.WithTimeout(ctx, cfg.SessionTimeout)
	defer cancel()

	valid, err := cfg.SessionValidator.Validate(callCtx, claims.Subject(), claims.SessionID())
	if err != nil {
		return ErrStoreUnavailable
	}

	if !valid {
		return ErrSessionRevoked
	}

	return nil
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.SessionValidator == nil {
		panic("GATE: middleware configuration: SessionValidator is required.")
	}

	if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("GATE: middleware configuration: At least one of the following is required: KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "claims"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 2 * time.Second
	}

	if cfg.KeyFunc == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	if cfg.TokenValidator == nil {
		cfg.TokenValidator = keyFuncValidator{keyFunc: cfg.KeyFunc}
	}

	return cfg
}

// keyFuncValidator validates tokens from key material alone. It serves
// deployments where tokens come from an external issuer and no richer
// validator is wired in.
type keyFuncValidator struct {
	keyFunc jwt.Keyfunc
}

func (v keyFuncValidator) Validate(tokenString string) (AccessClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return externalClaims{claims: mapClaims}, nil
}

// externalClaims adapts an externally issued token's claim set to the
// AccessClaims surface. Claim keys match the locally minted tokens: roles,
// active_role, and jti as the session binding.
type externalClaims struct {
	claims jwt.MapClaims
}

func (c externalClaims) Subject() string {
	sub, _ := c.claims.GetSubject()
	return sub
}

func (c externalClaims) Roles() []string {
	raw, ok := c.claims["roles"].([]any)
	if !ok {
		return nil
	}

	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func (c externalClaims) ActiveRole() string {
	role, _ := c.claims["active_role"].(string)
	return role
}

func (c externalClaims) SessionID() string {
	jti, _ := c.claims["jti"].(string)
	return jti
}

func (c externalClaims) HasRole(role string) bool {
	for _, granted := range c.Roles() {
		if granted == role {
			return true
		}
	}
	return false
}

// DefaultErrorHandler maps gate failures onto the uniform failure envelope.
// Authentication and session failures are both 401; the body never says
// which validation check rejected the token.
func DefaultErrorHandler(c router.Context, err error) error {
	status := router.StatusUnauthorized
	message := "authentication failed"

	switch {
	case errors.Is(err, ErrTokenMissing):
		message = ErrTokenMissing.Error()
	case errors.Is(err, ErrSessionRevoked):
		message = ErrSessionRevoked.Error()
	case errors.Is(err, ErrStoreUnavailable):
		status = http.StatusInternalServerError
		message = "authentication backend unavailable"
	}

	return c.JSON(status, map[string]any{
		"status":  "failure",
		"message": message,
		"data":    nil,
		"errors":  nil,
	})
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims AccessClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts token from the request header.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			return "", ErrTokenMissing
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissing
	}
}

// tokenFromQuery returns a function that extracts token from the query string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts token from the named cookie.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
