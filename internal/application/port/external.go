package port

import (
	"context"
	"time"

	"github.com/insurhub/underwriter/internal/domain/entity"
)

// ScoringKind selects the AI collaborator's scoring model.
type ScoringKind string

const (
	ApplicationScoring ScoringKind = "application"
	ClaimScoring       ScoringKind = "claim"
)

// ScoringPayload carries only the fields the AI collaborator contractually
// needs; no other PII crosses this boundary. Fields irrelevant to the kind
// are left at their zero value and omitted from the request body.
type ScoringPayload struct {
	// Claim fields
	Amount      float64 `json:"amount,omitempty"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	ClaimType   string  `json:"claim_type,omitempty"`

	// Application fields
	Age            int    `json:"age,omitempty"`
	Occupation     string `json:"occupation,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty"`
}

// AIScorer scores an application or claim. Implementations absorb every
// collaborator failure into the fixed fallback result; Score never returns
// an error and never blocks past its configured timeout. At most one
// attempt per call.
type AIScorer interface {
	Score(ctx context.Context, kind ScoringKind, payload ScoringPayload) entity.ScoreResult
}

// NotificationPublisher publishes an event to a channel. Channels are
// "user:{id}" or "role:{ADMIN|BROKER}". Delivery is fire-and-forget with at
// most one attempt; a returned error is recorded, never propagated to the
// adjudication that triggered the publish.
type NotificationPublisher interface {
	Publish(ctx context.Context, channel string, event entity.NotificationEvent) error
}

// IDGenerator produces identifiers for claim numbers and payment
// transaction references. Injected so nothing in the workflow depends on
// global clock-derived state.
type IDGenerator interface {
	ClaimNumber() string
	TransactionRef(prefix string) string
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
