package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/sqlite"
)

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sqlite.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	id, claim_number, application_id, submitted_by, status, claim_type,
	amount_cents, incident_date, incident_location, incident_description,
	supporting_documents, confidence_score, fraud_score, risk_score,
	auto_approved, ai_assessment, reviewer_notes, rejection_reason,
	reviewed_by, reviewed_at, created_at, updated_at
`

// Create inserts a new claim in SUBMITTED state
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	docs, err := json.Marshal(claim.SupportingDocuments)
	if err != nil {
		return fmt.Errorf("failed to marshal supporting documents: %w", err)
	}

	query := `
		INSERT INTO claims (
			claim_number, application_id, submitted_by, status, claim_type,
			amount_cents, incident_date, incident_location,
			incident_description, supporting_documents
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		claim.ClaimNumber,
		claim.ApplicationID,
		claim.SubmittedBy,
		claim.Status,
		claim.ClaimType,
		claim.AmountCents,
		nullTime(claim.IncidentDate),
		claim.IncidentLocation,
		claim.IncidentDescription,
		string(docs),
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	claim.ID = id
	return nil
}

// GetByID retrieves a claim by ID, nil when absent
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`

	claim, err := r.scanClaim(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// GetByClaimNumber retrieves a claim by its public claim number
func (r *ClaimRepository) GetByClaimNumber(ctx context.Context, number string) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_number = ?`

	claim, err := r.scanClaim(r.db.Executor(ctx).QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by number", zap.String("claim_number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// UpdateDecision persists a status transition together with scores and audit
// text, conditional on the stored status still being fromStatus.
func (r *ClaimRepository) UpdateDecision(ctx context.Context, claim *entity.Claim, fromStatus entity.ClaimStatus) error {
	query := `
		UPDATE claims
		SET status = ?, confidence_score = ?, fraud_score = ?, risk_score = ?,
			auto_approved = ?, ai_assessment = ?, reviewer_notes = ?,
			rejection_reason = ?, reviewed_by = ?, reviewed_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		claim.Status,
		nullFloat(claim.ConfidenceScore),
		nullFloat(claim.FraudScore),
		nullFloat(claim.RiskScore),
		claim.AutoApproved,
		claim.AIAssessment,
		claim.ReviewerNotes,
		claim.RejectionReason,
		nullInt64(claim.ReviewedBy),
		nullTime(claim.ReviewedAt),
		claim.ID,
		fromStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update claim decision", zap.Int64("id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %d no longer in %s: %w", claim.ID, fromStatus, entity.ErrConflict)
	}
	return nil
}

// ListByStatus lists claims in a given status, oldest first so review queues
// are worked in submission order
func (r *ClaimRepository) ListByStatus(ctx context.Context, status entity.ClaimStatus, limit, offset int) ([]*entity.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.String("status", status.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	return r.collectClaims(rows)
}

// ListByApplicationID lists every claim filed against an application
func (r *ClaimRepository) ListByApplicationID(ctx context.Context, applicationID int64) ([]*entity.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE application_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to list claims by application", zap.Int64("application_id", applicationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	return r.collectClaims(rows)
}

func (r *ClaimRepository) collectClaims(rows *sql.Rows) ([]*entity.Claim, error) {
	var claims []*entity.Claim
	for rows.Next() {
		claim, err := r.scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func (r *ClaimRepository) scanClaim(row rowScanner) (*entity.Claim, error) {
	var claim entity.Claim
	var incidentDate, reviewedAt sql.NullTime
	var docs sql.NullString
	var confidence, fraud, risk sql.NullFloat64
	var aiAssessment, reviewerNotes, rejectionReason sql.NullString
	var reviewedBy sql.NullInt64

	err := row.Scan(
		&claim.ID,
		&claim.ClaimNumber,
		&claim.ApplicationID,
		&claim.SubmittedBy,
		&claim.Status,
		&claim.ClaimType,
		&claim.AmountCents,
		&incidentDate,
		&claim.IncidentLocation,
		&claim.IncidentDescription,
		&docs,
		&confidence,
		&fraud,
		&risk,
		&claim.AutoApproved,
		&aiAssessment,
		&reviewerNotes,
		&rejectionReason,
		&reviewedBy,
		&reviewedAt,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if incidentDate.Valid {
		claim.IncidentDate = &incidentDate.Time
	}
	if docs.Valid && docs.String != "" {
		if err := json.Unmarshal([]byte(docs.String), &claim.SupportingDocuments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal supporting documents: %w", err)
		}
	}
	if confidence.Valid {
		claim.ConfidenceScore = &confidence.Float64
	}
	if fraud.Valid {
		claim.FraudScore = &fraud.Float64
	}
	if risk.Valid {
		claim.RiskScore = &risk.Float64
	}
	claim.AIAssessment = aiAssessment.String
	claim.ReviewerNotes = reviewerNotes.String
	claim.RejectionReason = rejectionReason.String
	if reviewedBy.Valid {
		claim.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		claim.ReviewedAt = &reviewedAt.Time
	}

	return &claim, nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
