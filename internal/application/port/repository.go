package port

import (
	"context"
	"time"

	"github.com/insurhub/underwriter/internal/domain/entity"
)

// ApplicationRepository defines persistence operations for Application
type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	GetByID(ctx context.Context, id int64) (*entity.Application, error)

	// GetLiveByUserAndPolicy returns the user's non-rejected application for
	// the policy, or nil when none exists.
	GetLiveByUserAndPolicy(ctx context.Context, userID, policyID int64) (*entity.Application, error)

	// UpdateDecision persists a status transition together with the fields
	// set during adjudication. The update is conditional on the stored
	// status still being fromStatus; entity.ErrConflict is returned when
	// another transition won the race.
	UpdateDecision(ctx context.Context, app *entity.Application, fromStatus entity.ApplicationStatus) error

	ListByStatus(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.Application, error)
}

// ClaimRepository defines persistence operations for Claim. Claims are an
// audit trail: there is no delete.
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error)

	// UpdateDecision persists a status transition together with scores and
	// audit text, conditional on the stored status still being fromStatus.
	// Returns entity.ErrConflict on a lost race.
	UpdateDecision(ctx context.Context, claim *entity.Claim, fromStatus entity.ClaimStatus) error

	ListByStatus(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error)
	ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Claim, error)
}

// PaymentRepository defines persistence operations for Payment
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)

	// GetByEntityTransition returns the payment created for an
	// entity+transition pair, or nil when none exists. This is the
	// idempotency check the EffectDispatcher relies on.
	GetByEntityTransition(ctx context.Context, entityKind string, entityID int64, transitionRef string) (*entity.Payment, error)

	ListByClaimID(ctx context.Context, claimID int64) ([]*entity.Payment, error)
	ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Payment, error)
	MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	// Create inserts the record unless one already exists for the same
	// (entity kind, entity id, event type, channel) tuple; in that case it
	// reports created=false and leaves the existing row untouched.
	Create(ctx context.Context, n *entity.Notification) (created bool, err error)

	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ListByEntity(ctx context.Context, entityKind string, entityID int64) ([]*entity.Notification, error)
}

// PolicyRepository provides read access to the policy catalog. The catalog
// itself is owned by the surrounding system.
type PolicyRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Policy, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
