package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the record unless one already exists for the same
// (entity_kind, entity_id, event_type, channel) tuple. The unique index
// enforces this; a constraint violation reports created=false.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (
			entity_kind, entity_id, event_type, channel, payload, status
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		n.EntityKind,
		n.EntityID,
		n.EventType,
		n.Channel,
		n.Payload,
		n.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		r.logger.Error("Failed to create notification", zap.Error(err))
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return true, nil
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE notifications SET status = ?, sent_at = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationSent, at, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `UPDATE notifications SET status = ?, error_message = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationFailed, errMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// ListByEntity lists notifications emitted for an entity
func (r *NotificationRepository) ListByEntity(ctx context.Context, entityKind string, entityID int64) ([]*entity.Notification, error) {
	query := `
		SELECT id, entity_kind, entity_id, event_type, channel, payload,
			status, sent_at, error_message, created_at
		FROM notifications
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, entityKind, entityID)
	if err != nil {
		r.logger.Error("Failed to list notifications",
			zap.String("entity_kind", entityKind),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		var errorMsg sql.NullString

		err := rows.Scan(
			&n.ID,
			&n.EntityKind,
			&n.EntityID,
			&n.EventType,
			&n.Channel,
			&n.Payload,
			&n.Status,
			&sentAt,
			&errorMsg,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		n.ErrorMsg = errorMsg.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// isUniqueViolation detects SQLite unique constraint errors without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
