package gate

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	PasswordResets() repository.Repository[*PasswordReset]
	AuthEvents() repository.Repository[*AuthEventRecord]
}

func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	handlers := repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset {
			return &PasswordReset{}
		},
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewAuthEventsRepository(db *bun.DB) repository.Repository[*AuthEventRecord] {
	handlers := repository.ModelHandlers[*AuthEventRecord]{
		NewRecord: func() *AuthEventRecord {
			return &AuthEventRecord{}
		},
		GetID: func(record *AuthEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *AuthEventRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "identity"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db             *bun.DB
	users          Users
	passwordResets repository.Repository[*PasswordReset]
	authEvents     repository.Repository[*AuthEventRecord]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		passwordResets: NewPasswordResetsRepository(db),
		authEvents:     NewAuthEventsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	if m.authEvents == nil {
		return errors.New("repository authEvents should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) PasswordResets() repository.Repository[*PasswordReset] {
	return m.passwordResets
}

func (m mngr) AuthEvents() repository.Repository[*AuthEventRecord] {
	return m.authEvents
}

// NewRepositoryEventSink persists auth events through the repository layer.
// Use it as an AuditTrail sink when events must survive process restarts.
func NewRepositoryEventSink(repo repository.Repository[*AuthEventRecord]) AuthEventSink {
	return AuthEventSinkFunc(func(ctx context.Context, event AuthEvent) error {
		occurredAt := event.OccurredAt
		record := &AuthEventRecord{
			Identity:      event.Identity,
			SourceAddress: event.SourceAddress,
			Success:       event.Success,
			Suspicious:    event.Suspicious,
			Reason:        event.Reason,
			OccurredAt:    &occurredAt,
		}
		_, err := repo.Create(ctx, record)
		return err
	})
}
