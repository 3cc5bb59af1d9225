package gate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther composes the token service, session store, login throttle and
// audit trail into the credential-based authentication flows.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	sessions     SessionStore
	throttle     LoginThrottle
	audit        *AuditTrail
	auditOnce    sync.Once
	logger       Logger
	sessionTTL   time.Duration
	storeTimeout time.Duration
	now          func() time.Time
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(provider IdentityProvider, sessions SessionStore, throttle LoginThrottle, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		sessions:     sessions,
		throttle:     throttle,
		logger:       defLogger{},
		sessionTTL:   time.Duration(cfg.GetTokenExpiration()) * time.Hour,
		storeTimeout: cfg.GetStoreTimeout(),
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithAuditTrail configures the audit trail used for login outcomes.
func (s *Auther) WithAuditTrail(audit *AuditTrail) *Auther {
	if audit != nil {
		s.audit = audit
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// auditTrail lazily builds the default trail so wiring a custom one via
// WithAuditTrail never strands a default delivery worker.
func (s *Auther) auditTrail() *AuditTrail {
	s.auditOnce.Do(func() {
		if s.audit == nil {
			s.audit = NewAuditTrail(WithAuditLogger(s.logger))
		}
	})
	return s.audit
}

// WithTokenService sets a custom token service.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login runs the throttle-wrapped credential flow: lockout check, identity
// verification, counter bookkeeping, session replacement, token issuance.
// Every outcome is audited. A second login replaces the previous session,
// so the earlier token stops validating even before it expires.
func (s *Auther) Login(ctx context.Context, identifier, password, sourceAddr string) (string, error) {
	state, err := s.throttle.CheckStatus(ctx, identifier)
	if err != nil {
		return "", err
	}

	if state.Status == ThrottleBlocked {
		blockedErr := NewAccountBlockedError(state.Remaining(s.now()))
		s.auditTrail().Record(ctx, AuthEvent{
			Identity:      identifier,
			SourceAddress: sourceAddr,
			Reason:        "login while blocked",
		})
		return "", blockedErr
	}

	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		if isInfraCause(err) {
			s.logger.Error("identity verification unavailable", "error", err)
			return "", ErrInfraUnavailable
		}
		return "", s.loginFailed(ctx, identifier, sourceAddr, password, err)
	}

	if identity == nil {
		return "", s.loginFailed(ctx, identifier, sourceAddr, password, ErrIdentityNotFound)
	}

	if err := s.throttle.RecordSuccess(ctx, identifier); err != nil {
		return "", err
	}

	sessionID := NewSessionID()
	if err := s.replaceSession(ctx, identity.ID(), sessionID); err != nil {
		return "", err
	}

	roles := identity.Roles()
	token, err := s.tokenService.Issue(identity.ID(), roles, activeRoleFor(roles), sessionID)
	if err != nil {
		s.logger.Error("Login token issuance failed", "error", err)
		return "", err
	}

	s.auditTrail().Record(ctx, AuthEvent{
		Identity:      identifier,
		SourceAddress: sourceAddr,
		Success:       true,
	})

	return token, nil
}

// Logout revokes the caller's session. Idempotent; the token itself stays
// cryptographically valid until expiry, which is why the gate always checks
// the session store.
func (s *Auther) Logout(ctx context.Context, claims AccessClaims) error {
	if claims == nil {
		return ErrNoToken
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.sessions.Invalidate(ctx, claims.Subject(), claims.SessionID()); err != nil {
		s.logger.Error("Logout session invalidation failed", "error", err)
		return ErrInfraUnavailable
	}

	return nil
}

// SwitchRole reissues a token with a different active role and a fresh
// session id. The old session is invalidated by the replacement.
func (s *Auther) SwitchRole(ctx context.Context, claims AccessClaims, role string) (string, error) {
	if claims == nil {
		return "", ErrNoToken
	}

	if !claims.HasRole(role) {
		return "", errors.New("role was not granted to this identity", errors.CategoryAuthz).
			WithTextCode(TextCodeAccessDenied).
			WithCode(errors.CodeForbidden).
			WithMetadata(map[string]any{"role": role})
	}

	sessionID := NewSessionID()
	if err := s.replaceSession(ctx, claims.Subject(), sessionID); err != nil {
		return "", err
	}

	return s.tokenService.Issue(claims.Subject(), claims.Roles(), role, sessionID)
}

// replaceSession writes the new session with one bounded retry; a store
// that stays unreachable fails the login rather than skipping the write.
func (s *Auther) replaceSession(ctx context.Context, identity, sessionID string) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		return s.sessions.Replace(callCtx, identity, sessionID, s.sessionTTL)
	}

	err := attempt()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.Warn("session replace failed, retrying once", "error", err)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	if err := attempt(); err != nil {
		s.logger.Error("session replace failed after retry", "error", err)
		return ErrInfraUnavailable
	}

	return nil
}

// loginFailed records the failure against throttle and audit, masking the
// password out of anything that might log it. When the failure triggers or
// hits an active lockout, the lockout error wins over the credential error.
func (s *Auther) loginFailed(ctx context.Context, identifier, sourceAddr, password string, cause error) error {
	_, throttleErr := s.throttle.RecordFailure(ctx, identifier)

	s.auditTrail().Record(ctx, AuthEvent{
		Identity:      identifier,
		SourceAddress: sourceAddr,
		Reason:        cause.Error(),
	}, password)

	if throttleErr != nil && IsAccountBlocked(throttleErr) {
		return throttleErr
	}

	if throttleErr != nil {
		s.logger.Error("login throttle record failure errored", "error", throttleErr)
	}

	return cause
}

// isInfraCause reports whether a verification failure came from the backing
// store rather than the presented credentials. Infrastructure faults fail the
// request but must not count toward the identity's lockout.
func isInfraCause(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == errors.CategoryInternal
	}
	return false
}

// activeRoleFor picks the default active role for a fresh login.
func activeRoleFor(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}
