// Package repository contains the SQLite implementations of the persistence
// ports. Every statement runs through the executor extracted from the
// context, so repositories transparently join a surrounding transaction.
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

// ApplicationRepository implements port.ApplicationRepository
type ApplicationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *sqlite.DB, logger *zap.Logger) port.ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: logger,
	}
}

const applicationColumns = `
	id, user_id, policy_id, status, age, occupation, medical_history,
	annual_salary_cents, monthly_premium_cents, risk_score, ai_assessment,
	approval_notes, start_date, end_date, decided_at, created_at, updated_at
`

// Create inserts a new application in APPLIED state
func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO applications (
			user_id, policy_id, status, age, occupation, medical_history,
			annual_salary_cents, monthly_premium_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		app.UserID,
		app.PolicyID,
		app.Status,
		app.Age,
		app.Occupation,
		app.MedicalHistory,
		app.AnnualSalary,
		app.MonthlyPremium,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %d already holds a live application for policy %d",
				entity.ErrDuplicateApplication, app.UserID, app.PolicyID)
		}
		r.logger.Error("Failed to create application", zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	app.ID = id
	return nil
}

// GetByID retrieves an application by ID, nil when absent
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`

	app, err := r.scanApplication(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get application by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetLiveByUserAndPolicy returns the user's non-rejected application for the
// policy, or nil when none exists.
func (r *ApplicationRepository) GetLiveByUserAndPolicy(ctx context.Context, userID, policyID int64) (*entity.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE user_id = ? AND policy_id = ? AND status != ?
		ORDER BY id DESC
		LIMIT 1
	`

	app, err := r.scanApplication(r.db.Executor(ctx).QueryRowContext(ctx, query, userID, policyID, entity.ApplicationRejected))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get live application",
			zap.Int64("user_id", userID),
			zap.Int64("policy_id", policyID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get live application: %w", err)
	}
	return app, nil
}

// UpdateDecision persists a status transition together with the fields set
// during adjudication. The UPDATE is conditional on the stored status still
// being fromStatus; a zero-row update reports entity.ErrConflict.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, app *entity.Application, fromStatus entity.ApplicationStatus) error {
	query := `
		UPDATE applications
		SET status = ?, risk_score = ?, ai_assessment = ?, approval_notes = ?,
			start_date = ?, end_date = ?, decided_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		app.Status,
		nullFloat(app.RiskScore),
		app.AIAssessment,
		app.ApprovalNotes,
		nullTime(app.StartDate),
		nullTime(app.EndDate),
		nullTime(app.DecidedAt),
		app.ID,
		fromStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update application decision", zap.Int64("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to update application: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application %d no longer in %s: %w", app.ID, fromStatus, entity.ErrConflict)
	}
	return nil
}

// ListByStatus lists applications in a given status, newest first
func (r *ApplicationRepository) ListByStatus(ctx context.Context, status entity.ApplicationStatus, limit, offset int) ([]*entity.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list applications", zap.String("status", status.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*entity.Application
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ApplicationRepository) scanApplication(row rowScanner) (*entity.Application, error) {
	var app entity.Application
	var riskScore sql.NullFloat64
	var aiAssessment, approvalNotes sql.NullString
	var startDate, endDate, decidedAt sql.NullTime

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.PolicyID,
		&app.Status,
		&app.Age,
		&app.Occupation,
		&app.MedicalHistory,
		&app.AnnualSalary,
		&app.MonthlyPremium,
		&riskScore,
		&aiAssessment,
		&approvalNotes,
		&startDate,
		&endDate,
		&decidedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if riskScore.Valid {
		app.RiskScore = &riskScore.Float64
	}
	app.AIAssessment = aiAssessment.String
	app.ApprovalNotes = approvalNotes.String
	if startDate.Valid {
		app.StartDate = &startDate.Time
	}
	if endDate.Valid {
		app.EndDate = &endDate.Time
	}
	if decidedAt.Valid {
		app.DecidedAt = &decidedAt.Time
	}

	return &app, nil
}

// Verify interface compliance
var _ port.ApplicationRepository = (*ApplicationRepository)(nil)
