package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
)

// Logger is the narrow logging interface the application services depend
// on. *zap.SugaredLogger satisfies it.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NotificationService persists and publishes workflow notifications.
// Everything here is best-effort: a failure is recorded on the notification
// row and logged, never returned to the adjudication path.
type NotificationService interface {
	NotifyApplication(ctx context.Context, app *entity.Application, eventType string)
	NotifyClaim(ctx context.Context, claim *entity.Claim, eventType string)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	publisher        port.NotificationPublisher
	clock            port.Clock
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	publisher port.NotificationPublisher,
	clock port.Clock,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		clock:            clock,
		logger:           logger,
	}
}

// NotifyApplication fans an application event out to the applicant, admins
// and brokers.
func (s *notificationServiceImpl) NotifyApplication(ctx context.Context, app *entity.Application, eventType string) {
	event := applicationEvent(app, eventType)
	channels := []string{
		fmt.Sprintf("user:%d", app.UserID),
		fmt.Sprintf("role:%s", entity.RoleAdmin),
		fmt.Sprintf("role:%s", entity.RoleBroker),
	}
	s.emit(ctx, entity.KindApplication, app.ID, eventType, event, channels)
}

// NotifyClaim fans a claim event out to the claimant and admins.
func (s *notificationServiceImpl) NotifyClaim(ctx context.Context, claim *entity.Claim, eventType string) {
	event := claimEvent(claim, eventType)
	channels := []string{
		fmt.Sprintf("user:%d", claim.SubmittedBy),
		fmt.Sprintf("role:%s", entity.RoleAdmin),
	}
	s.emit(ctx, entity.KindClaim, claim.ID, eventType, event, channels)
}

// emit persists one notification per channel and publishes the newly
// created ones. Re-emitting the same entity+event+channel is a no-op, which
// keeps effect dispatch idempotent.
func (s *notificationServiceImpl) emit(ctx context.Context, kind string, entityID int64, eventType string, event entity.NotificationEvent, channels []string) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal notification payload", "error", err, "event_type", eventType)
		return
	}

	for _, channel := range channels {
		record := &entity.Notification{
			EntityKind: kind,
			EntityID:   entityID,
			EventType:  eventType,
			Channel:    channel,
			Payload:    string(payload),
			Status:     entity.NotificationPending,
		}

		created, err := s.notificationRepo.Create(ctx, record)
		if err != nil {
			s.logger.Error("Failed to persist notification", "error", err, "channel", channel, "event_type", eventType)
			continue
		}
		if !created {
			// Already emitted for this entity+event+channel.
			continue
		}

		if err := s.publisher.Publish(ctx, channel, event); err != nil {
			s.logger.Warn("Notification publish failed", "error", err, "channel", channel, "event_type", eventType)
			if mErr := s.notificationRepo.MarkFailed(ctx, record.ID, err.Error()); mErr != nil {
				s.logger.Error("Failed to mark notification failed", "error", mErr, "id", record.ID)
			}
			continue
		}

		if err := s.notificationRepo.MarkSent(ctx, record.ID, s.clock.Now()); err != nil {
			s.logger.Error("Failed to mark notification sent", "error", err, "id", record.ID)
		}
	}
}

func applicationEvent(app *entity.Application, eventType string) entity.NotificationEvent {
	var title, message string
	switch eventType {
	case entity.EventPolicyAutoApproved:
		title = "Policy application approved"
		message = "Your policy application has been automatically approved and is now active."
	case entity.EventPolicyPendingApproval:
		title = "Policy application under review"
		message = "Your policy application requires review by our underwriting team."
	case entity.EventPolicyApproved:
		title = "Policy application approved"
		message = "Your policy application has been approved and is now active."
	case entity.EventPolicyRejected:
		title = "Policy application rejected"
		message = "Your policy application has been rejected. See the approval notes for details."
	default:
		title = "Policy application update"
		message = fmt.Sprintf("Your policy application status changed to %s.", app.Status)
	}

	return entity.NotificationEvent{
		Type:    eventType,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"application_id": app.ID,
			"policy_id":      app.PolicyID,
			"status":         app.Status.String(),
		},
	}
}

func claimEvent(claim *entity.Claim, eventType string) entity.NotificationEvent {
	var title, message string
	switch eventType {
	case entity.EventClaimAutoApproved:
		title = "Claim approved"
		message = fmt.Sprintf("Claim %s has been automatically approved and the payout is being processed.", claim.ClaimNumber)
	case entity.EventClaimPendingReview:
		title = "Claim under admin review"
		message = fmt.Sprintf("Claim %s requires review by an administrator.", claim.ClaimNumber)
	case entity.EventClaimUnderReview:
		title = "Claim under review"
		message = fmt.Sprintf("Claim %s is being reviewed.", claim.ClaimNumber)
	case entity.EventClaimApproved:
		title = "Claim approved"
		message = fmt.Sprintf("Claim %s has been approved.", claim.ClaimNumber)
	case entity.EventClaimRejected:
		title = "Claim rejected"
		message = fmt.Sprintf("Claim %s has been rejected.", claim.ClaimNumber)
	case entity.EventClaimPaid:
		title = "Claim paid"
		message = fmt.Sprintf("The payout for claim %s has been settled.", claim.ClaimNumber)
	default:
		title = "Claim update"
		message = fmt.Sprintf("Claim %s status changed to %s.", claim.ClaimNumber, claim.Status)
	}

	return entity.NotificationEvent{
		Type:    eventType,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"claim_id":     claim.ID,
			"claim_number": claim.ClaimNumber,
			"status":       claim.Status.String(),
		},
	}
}
