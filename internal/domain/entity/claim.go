package entity

import (
	"strings"
	"time"
)

// ClaimStatus represents the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimSubmitted          ClaimStatus = "SUBMITTED"
	ClaimUnderReview        ClaimStatus = "UNDER_REVIEW"
	ClaimPendingAdminReview ClaimStatus = "PENDING_ADMIN_REVIEW"
	ClaimApproved           ClaimStatus = "APPROVED"
	ClaimRejected           ClaimStatus = "REJECTED"
	ClaimPaid               ClaimStatus = "PAID"
)

// String returns the string representation of the status
func (s ClaimStatus) String() string {
	return string(s)
}

// Claim represents a payout request against an active application.
// Claims are retained forever as an audit trail and are never deleted.
type Claim struct {
	ID                  int64       `json:"id"`
	ClaimNumber         string      `json:"claim_number"`
	ApplicationID       int64       `json:"application_id"`
	SubmittedBy         int64       `json:"submitted_by"`
	Status              ClaimStatus `json:"status"`
	ClaimType           string      `json:"claim_type,omitempty"`
	AmountCents         int64       `json:"amount_cents"`
	IncidentDate        *time.Time  `json:"incident_date,omitempty"`
	IncidentLocation    string      `json:"incident_location,omitempty"`
	IncidentDescription string      `json:"incident_description,omitempty"`
	SupportingDocuments []string    `json:"supporting_documents,omitempty"`
	ConfidenceScore     *float64    `json:"confidence_score,omitempty"`
	FraudScore          *float64    `json:"fraud_score,omitempty"`
	RiskScore           *float64    `json:"risk_score,omitempty"`
	AutoApproved        bool        `json:"auto_approved"`
	AIAssessment        string      `json:"ai_assessment,omitempty"`
	ReviewerNotes       string      `json:"reviewer_notes,omitempty"`
	RejectionReason     string      `json:"rejection_reason,omitempty"`
	ReviewedBy          *int64      `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time  `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// AppendReviewerNote appends an audit note to the reviewer notes. A note
// that merely repeats the most recent one is dropped so repeated no-op
// operations do not grow the audit trail.
func (c *Claim) AppendReviewerNote(note string) {
	if note == "" {
		return
	}
	if c.ReviewerNotes == "" {
		c.ReviewerNotes = note
		return
	}
	trimmed := strings.TrimRight(c.ReviewerNotes, "\n")
	if idx := strings.LastIndex(trimmed, "\n"); trimmed[idx+1:] == note {
		return
	}
	c.ReviewerNotes = trimmed + "\n" + note
}

// AwaitingHuman reports whether the claim is parked for a human decision.
func (c *Claim) AwaitingHuman() bool {
	return c.Status == ClaimUnderReview || c.Status == ClaimPendingAdminReview
}

// SetScores records the adjudication scores on the claim.
func (c *Claim) SetScores(confidence, fraud, risk float64) {
	c.ConfidenceScore = &confidence
	c.FraudScore = &fraud
	c.RiskScore = &risk
}

// HasScores reports whether the claim already carries exactly these
// adjudication scores.
func (c *Claim) HasScores(confidence, fraud, risk float64) bool {
	return c.ConfidenceScore != nil && *c.ConfidenceScore == confidence &&
		c.FraudScore != nil && *c.FraudScore == fraud &&
		c.RiskScore != nil && *c.RiskScore == risk
}
