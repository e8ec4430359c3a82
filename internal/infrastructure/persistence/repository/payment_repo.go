package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/sqlite"
)

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sqlite.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

const paymentColumns = `
	id, application_id, claim_id, type, status, amount_cents, transaction_id,
	transition, description, due_date, paid_at, failure_reason,
	created_at, updated_at
`

// Create inserts a new payment record
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			application_id, claim_id, type, status, amount_cents,
			transaction_id, transition, description, due_date, paid_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		nullInt64(payment.ApplicationID),
		nullInt64(payment.ClaimID),
		payment.Type,
		payment.Status,
		payment.AmountCents,
		payment.TransactionID,
		payment.Transition,
		payment.Description,
		nullTime(payment.DueDate),
		nullTime(payment.PaidAt),
	)
	if err != nil {
		r.logger.Error("Failed to create payment", zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	payment.ID = id
	return nil
}

// GetByID retrieves a payment by ID, nil when absent
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment, err := r.scanPayment(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetByEntityTransition returns the payment created for an entity+transition
// pair, or nil when none exists. The dispatcher's idempotency check.
func (r *PaymentRepository) GetByEntityTransition(ctx context.Context, entityKind string, entityID int64, transitionRef string) (*entity.Payment, error) {
	var query string
	switch entityKind {
	case entity.KindApplication:
		query = `SELECT ` + paymentColumns + ` FROM payments WHERE application_id = ? AND transition = ?`
	case entity.KindClaim:
		query = `SELECT ` + paymentColumns + ` FROM payments WHERE claim_id = ? AND transition = ?`
	default:
		return nil, fmt.Errorf("unknown entity kind %q", entityKind)
	}

	payment, err := r.scanPayment(r.db.Executor(ctx).QueryRowContext(ctx, query, entityID, transitionRef))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment by transition",
			zap.String("entity_kind", entityKind),
			zap.Int64("entity_id", entityID),
			zap.String("transition", transitionRef),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListByClaimID lists payments attached to a claim
func (r *PaymentRepository) ListByClaimID(ctx context.Context, claimID int64) ([]*entity.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE claim_id = ? ORDER BY created_at ASC`, claimID)
}

// ListByApplicationID lists payments attached to an application
func (r *PaymentRepository) ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE application_id = ? ORDER BY created_at ASC`, applicationID)
}

// MarkCompleted settles a payment
func (r *PaymentRepository) MarkCompleted(ctx context.Context, id int64, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = ?, paid_at = ?, failure_reason = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.PaymentCompleted, paidAt, id)
	if err != nil {
		r.logger.Error("Failed to mark payment completed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark payment completed: %w", err)
	}
	return nil
}

// MarkFailed records a payment failure
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE payments
		SET status = ?, failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.PaymentFailed, reason, id)
	if err != nil {
		r.logger.Error("Failed to mark payment failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, arg interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) scanPayment(row rowScanner) (*entity.Payment, error) {
	var payment entity.Payment
	var applicationID, claimID sql.NullInt64
	var transactionID, description, failureReason sql.NullString
	var dueDate, paidAt sql.NullTime

	err := row.Scan(
		&payment.ID,
		&applicationID,
		&claimID,
		&payment.Type,
		&payment.Status,
		&payment.AmountCents,
		&transactionID,
		&payment.Transition,
		&description,
		&dueDate,
		&paidAt,
		&failureReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if applicationID.Valid {
		payment.ApplicationID = &applicationID.Int64
	}
	if claimID.Valid {
		payment.ClaimID = &claimID.Int64
	}
	payment.TransactionID = transactionID.String
	payment.Description = description.String
	if dueDate.Valid {
		payment.DueDate = &dueDate.Time
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}
	payment.FailureReason = failureReason.String

	return &payment, nil
}

// Verify interface compliance
var _ port.PaymentRepository = (*PaymentRepository)(nil)
