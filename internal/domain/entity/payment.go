package entity

import "time"

// Payment status constants
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment type constants
const (
	PaymentTypePremium     = "PREMIUM"
	PaymentTypeClaimPayout = "CLAIM_PAYOUT"
)

// Payment represents a payment side-effect record created by an adjudication
// transition. A payment references its owning entity by id only; entities do
// not hold back-pointers to their payments.
type Payment struct {
	ID            int64      `json:"id"`
	ApplicationID *int64     `json:"application_id,omitempty"`
	ClaimID       *int64     `json:"claim_id,omitempty"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	AmountCents   int64      `json:"amount_cents"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Transition    string     `json:"transition"`
	Description   string     `json:"description,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
