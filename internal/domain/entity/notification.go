package entity

import "time"

// Notification event type constants
const (
	EventPolicyAutoApproved    = "POLICY_AUTO_APPROVED"
	EventPolicyPendingApproval = "POLICY_PENDING_APPROVAL"
	EventPolicyApproved        = "POLICY_APPROVED"
	EventPolicyRejected        = "POLICY_REJECTED"
	EventClaimAutoApproved     = "CLAIM_AUTO_APPROVED"
	EventClaimPendingReview    = "CLAIM_PENDING_REVIEW"
	EventClaimUnderReview      = "CLAIM_UNDER_REVIEW"
	EventClaimApproved         = "CLAIM_APPROVED"
	EventClaimRejected         = "CLAIM_REJECTED"
	EventClaimPaid             = "CLAIM_PAID"
)

// Notification delivery status constants
const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)

// NotificationEvent is the payload published to a channel. Delivery is
// at-most-once: one publish attempt per event, failures recorded but never
// propagated to the adjudication that produced it.
type NotificationEvent struct {
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Notification is the persisted record of an emitted notification. The
// (entity kind, entity id, event type, channel) tuple is unique, which is
// what makes effect dispatch idempotent for notifications.
type Notification struct {
	ID         int64      `json:"id"`
	EntityKind string     `json:"entity_kind"`
	EntityID   int64      `json:"entity_id"`
	EventType  string     `json:"event_type"`
	Channel    string     `json:"channel"`
	Payload    string     `json:"payload"`
	Status     string     `json:"status"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	ErrorMsg   string     `json:"error_message,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
