package gate

import (
	"context"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-gate/middleware/gateware"
)

// ValidationListener aliases the gateware listener so consumers can use gate helpers directly.
type ValidationListener = gateware.ValidationListener

type tokenValidatorAdapter struct {
	service TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (gateware.AccessClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewGatewareConfig wires the token service and session store into a
// middleware config carrying the gate's defaults: the standard allowlist,
// the configured token lookup and the store timeout.
func NewGatewareConfig(service TokenService, sessions SessionStore, cfg Config) gateware.Config {
	return gateware.Config{
		AllowPaths:       DefaultAllowPaths,
		SigningKey:       gateware.SigningKey{Key: []byte(cfg.GetSigningKey()), JWTAlg: cfg.GetSigningMethod()},
		ContextKey:       cfg.GetContextKey(),
		TokenLookup:      cfg.GetTokenLookup(),
		AuthScheme:       cfg.GetAuthScheme(),
		TokenValidator:   tokenValidatorAdapter{service: service},
		SessionValidator: sessions,
		SessionTimeout:   cfg.GetStoreTimeout(),
		ContextEnricher:  ContextEnricherAdapter,
	}
}

// NewRequestGate builds the protected-route middleware for an Auther.
func NewRequestGate(auther *Auther, sessions SessionStore, cfg Config) router.MiddlewareFunc {
	return gateware.New(NewGatewareConfig(auther.TokenService(), sessions, cfg))
}

// ContextEnricherAdapter adapts gateware.AccessClaims to gate.AccessClaims and
// stores them in the standard context for downstream matrix checks.
func ContextEnricherAdapter(c context.Context, claims gateware.AccessClaims) context.Context {
	accessClaims, ok := claims.(AccessClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, accessClaims)
}

// RegisterValidationListeners appends listeners to a gateware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *gateware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
