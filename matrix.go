package gate

import (
	"sort"
	"strings"
)

// PermissionRule grants a role a set of HTTP methods while a document sits
// in a given lifecycle status. Rules are loaded once and never mutated.
type PermissionRule struct {
	Role    string   `json:"role"`
	Status  string   `json:"status"`
	Methods []string `json:"methods"`
}

// AuthorizationMatrix evaluates (role, status, method) tuples against an
// immutable rule table. Any tuple without a matching rule is denied; on
// ambiguity the matrix fails closed.
type AuthorizationMatrix struct {
	enabled    bool
	rolePrefix string
	elevated   map[string]struct{}
	rules      map[string]map[string]map[string]struct{}
}

// MatrixOption customizes matrix construction.
type MatrixOption func(*AuthorizationMatrix)

// WithRolePrefix sets the prefix convention stripped from incoming role
// names before lookup, e.g. "ROLE_".
func WithRolePrefix(prefix string) MatrixOption {
	return func(m *AuthorizationMatrix) {
		m.rolePrefix = prefix
	}
}

// WithElevatedRoles names the roles that may modify any resource regardless
// of creator. The check runs outside the status matrix.
func WithElevatedRoles(roles ...string) MatrixOption {
	return func(m *AuthorizationMatrix) {
		for _, role := range roles {
			m.elevated[m.normalizeRole(role)] = struct{}{}
		}
	}
}

// WithMatrixDisabled turns role-based access off: every IsAllowed call
// denies and AllowedStatuses is empty for all roles.
func WithMatrixDisabled() MatrixOption {
	return func(m *AuthorizationMatrix) {
		m.enabled = false
	}
}

// NewAuthorizationMatrix builds the lookup table once from the configured
// rules. Duplicate (role, status) entries merge their method sets.
func NewAuthorizationMatrix(rules []PermissionRule, opts ...MatrixOption) *AuthorizationMatrix {
	m := &AuthorizationMatrix{
		enabled:  true,
		elevated: map[string]struct{}{},
		rules:    map[string]map[string]map[string]struct{}{},
	}

	for _, opt := range opts {
		opt(m)
	}

	for _, rule := range rules {
		role := m.normalizeRole(rule.Role)
		status := strings.ToLower(strings.TrimSpace(rule.Status))
		if role == "" || status == "" {
			continue
		}

		statuses, ok := m.rules[role]
		if !ok {
			statuses = map[string]map[string]struct{}{}
			m.rules[role] = statuses
		}

		methods, ok := statuses[status]
		if !ok {
			methods = map[string]struct{}{}
			statuses[status] = methods
		}

		for _, method := range rule.Methods {
			method = strings.ToUpper(strings.TrimSpace(method))
			if method != "" {
				methods[method] = struct{}{}
			}
		}
	}

	return m
}

// IsAllowed reports whether role may use method on a document in status.
// A missing role, status, or method entry means deny.
func (m *AuthorizationMatrix) IsAllowed(role, status, method string) bool {
	if !m.enabled {
		return false
	}

	statuses, ok := m.rules[m.normalizeRole(role)]
	if !ok {
		return false
	}

	methods, ok := statuses[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return false
	}

	_, ok = methods[strings.ToUpper(strings.TrimSpace(method))]
	return ok
}

// AllowedStatuses lists every status the role has at least one method for.
// Empty when the matrix is disabled or the role is unknown.
func (m *AuthorizationMatrix) AllowedStatuses(role string) []string {
	if !m.enabled {
		return []string{}
	}

	statuses, ok := m.rules[m.normalizeRole(role)]
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(statuses))
	for status := range statuses {
		out = append(out, status)
	}
	sort.Strings(out)

	return out
}

// IsElevated reports whether the role belongs to the elevated set.
func (m *AuthorizationMatrix) IsElevated(role string) bool {
	_, ok := m.elevated[m.normalizeRole(role)]
	return ok
}

// CanModify is the ownership path, layered in front of the status matrix: an
// elevated role may modify any resource, a standard role only resources it
// created. Creator comparison is a direct identity match.
func (m *AuthorizationMatrix) CanModify(claims AccessClaims, creatorID string) bool {
	if claims == nil {
		return false
	}

	if m.IsElevated(claims.ActiveRole()) {
		return true
	}

	return creatorID != "" && claims.Subject() == creatorID
}

func (m *AuthorizationMatrix) normalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if m.rolePrefix != "" {
		role = strings.TrimPrefix(role, m.rolePrefix)
	}
	return strings.ToLower(role)
}
