package gate

import "time"

// SimpleConfig is a plain-struct Config implementation for hosts that do not
// bring their own configuration layer.
type SimpleConfig struct {
	SigningKey       string
	SigningMethod    string
	ContextKey       string
	TokenExpiration  int
	TokenLookup      string
	AuthScheme       string
	Issuer           string
	Audience         []string
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	StoreTimeout     time.Duration
	RolePrefix       string
	PermissionRules  []PermissionRule
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string   { return c.SigningKey }
func (c *SimpleConfig) GetContextKey() string   { return withDefault(c.ContextKey, "claims") }
func (c *SimpleConfig) GetTokenExpiration() int { return withDefaultInt(c.TokenExpiration, 24) }
func (c *SimpleConfig) GetIssuer() string       { return c.Issuer }
func (c *SimpleConfig) GetAudience() []string   { return c.Audience }
func (c *SimpleConfig) GetRolePrefix() string   { return c.RolePrefix }

func (c *SimpleConfig) GetSigningMethod() string {
	return withDefault(c.SigningMethod, "HS256")
}

func (c *SimpleConfig) GetTokenLookup() string {
	return withDefault(c.TokenLookup, "header:Authorization")
}

func (c *SimpleConfig) GetAuthScheme() string {
	return withDefault(c.AuthScheme, "Bearer")
}

func (c *SimpleConfig) GetMaxLoginAttempts() int {
	return withDefaultInt(c.MaxLoginAttempts, 5)
}

func (c *SimpleConfig) GetLockoutDuration() time.Duration {
	if c.LockoutDuration <= 0 {
		return 15 * time.Minute
	}
	return c.LockoutDuration
}

func (c *SimpleConfig) GetStoreTimeout() time.Duration {
	if c.StoreTimeout <= 0 {
		return 2 * time.Second
	}
	return c.StoreTimeout
}

func (c *SimpleConfig) GetPermissionRules() []PermissionRule {
	return c.PermissionRules
}

func withDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func withDefaultInt(val, def int) int {
	if val <= 0 {
		return def
	}
	return val
}
