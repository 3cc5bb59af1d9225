package gate

import "slices"

// Roles used by the document-onboarding workflows. Hosts can define their
// own; these are the defaults the rule table below refers to.
const (
	// RoleClerk creates and edits documents it owns
	RoleClerk = "clerk"
	// RoleReviewer moves submitted documents through review
	RoleReviewer = "reviewer"
	// RoleManager is the elevated role, may modify any document
	RoleManager = "manager"
	// RoleAuditor has read-only access across statuses
	RoleAuditor = "auditor"
)

// DefaultElevatedRoles bypass the creator check in the ownership path.
var DefaultElevatedRoles = []string{RoleManager}

// ValidRole checks against the predefined role set.
func ValidRole(role string) bool {
	switch role {
	case RoleClerk, RoleReviewer, RoleManager, RoleAuditor:
		return true
	default:
		return false
	}
}

// ValidRoles reports whether every role in the slice is known and the slice
// is not empty.
func ValidRoles(roles []string) bool {
	if len(roles) == 0 {
		return false
	}
	return !slices.ContainsFunc(roles, func(r string) bool {
		return !ValidRole(r)
	})
}

// DefaultPermissionRules is the rule table used when the host supplies none.
// The matrix denies anything not listed here.
func DefaultPermissionRules() []PermissionRule {
	return []PermissionRule{
		{Role: RoleClerk, Status: StatusDraft, Methods: []string{"GET", "POST", "PUT", "DELETE"}},
		{Role: RoleClerk, Status: StatusRejected, Methods: []string{"GET", "PUT"}},
		{Role: RoleClerk, Status: StatusSubmitted, Methods: []string{"GET"}},
		{Role: RoleReviewer, Status: StatusSubmitted, Methods: []string{"GET", "PUT"}},
		{Role: RoleReviewer, Status: StatusInReview, Methods: []string{"GET", "PUT"}},
		{Role: RoleManager, Status: StatusDraft, Methods: []string{"GET", "POST", "PUT", "DELETE"}},
		{Role: RoleManager, Status: StatusSubmitted, Methods: []string{"GET", "PUT", "DELETE"}},
		{Role: RoleManager, Status: StatusInReview, Methods: []string{"GET", "PUT", "DELETE"}},
		{Role: RoleManager, Status: StatusApproved, Methods: []string{"GET", "PUT", "DELETE"}},
		{Role: RoleManager, Status: StatusRejected, Methods: []string{"GET", "PUT", "DELETE"}},
		{Role: RoleManager, Status: StatusArchived, Methods: []string{"GET", "DELETE"}},
		{Role: RoleAuditor, Status: StatusDraft, Methods: []string{"GET"}},
		{Role: RoleAuditor, Status: StatusSubmitted, Methods: []string{"GET"}},
		{Role: RoleAuditor, Status: StatusInReview, Methods: []string{"GET"}},
		{Role: RoleAuditor, Status: StatusApproved, Methods: []string{"GET"}},
		{Role: RoleAuditor, Status: StatusRejected, Methods: []string{"GET"}},
		{Role: RoleAuditor, Status: StatusArchived, Methods: []string{"GET"}},
	}
}
