package gate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Document lifecycle statuses the permission matrix gates on.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusInReview  = "in_review"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusArchived  = "archived"
)

// UserStatus reflects whether an account may authenticate at all.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusPending   UserStatus = "pending"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Roles          []string       `bun:"roles,array" json:"roles,omitempty"`
	FirstName      string         `bun:"first_name" json:"first_name,omitempty"`
	LastName       string         `bun:"last_name" json:"last_name,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	Status         UserStatus     `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	EmailValidated bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults a blank status to active so legacy rows keep working.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// PrimaryRole returns the first granted role, the default active role at login.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// AuthEventRecord is the persisted form of an AuthEvent.
type AuthEventRecord struct {
	bun.BaseModel `bun:"table:auth_events,alias:evt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Identity      string     `bun:"identity,notnull" json:"identity"`
	SourceAddress string     `bun:"source_address" json:"source_address,omitempty"`
	Success       bool       `bun:"success,notnull" json:"success"`
	Suspicious    bool       `bun:"suspicious,notnull,default:false" json:"suspicious"`
	Reason        string     `bun:"reason" json:"reason,omitempty"`
	OccurredAt    *time.Time `bun:"occurred_at,nullzero,default:current_timestamp" json:"occurred_at,omitempty"`
}

// PasswordResetStatus tracks a reset request's lifecycle.
const (
	ResetRequestedStatus = "requested"
	ResetExpiredStatus   = "expired"
	ResetChangedStatus   = "changed"
)

// PasswordReset is the password reset model
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Status        string     `bun:"status,notnull,default:'requested'" json:"status,omitempty"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusSuspended:
		return ErrAccountSuspended
	case UserStatusBanned:
		return ErrAccountBanned
	case UserStatusPending:
		return ErrAccountPending
	default:
		return nil
	}
}
