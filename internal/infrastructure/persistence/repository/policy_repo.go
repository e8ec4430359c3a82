package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/sqlite"
)

// PolicyRepository implements port.PolicyRepository. The catalog is
// read-only; rows are seeded by migrations or the surrounding system.
type PolicyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sqlite.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an active policy by ID, nil when absent or inactive
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*entity.Policy, error) {
	query := `
		SELECT id, name, type, monthly_premium_cents, coverage_cents,
			requires_approval, active, created_at
		FROM policies
		WHERE id = ? AND active = 1
	`

	var policy entity.Policy
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&policy.ID,
		&policy.Name,
		&policy.Type,
		&policy.MonthlyPremium,
		&policy.CoverageCents,
		&policy.RequiresApproval,
		&policy.Active,
		&policy.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get policy by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	return &policy, nil
}

// Verify interface compliance
var _ port.PolicyRepository = (*PolicyRepository)(nil)
