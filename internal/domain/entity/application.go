package entity

import (
	"strings"
	"time"
)

// ApplicationStatus represents the lifecycle state of a policy application.
type ApplicationStatus string

const (
	ApplicationApplied         ApplicationStatus = "APPLIED"
	ApplicationPendingApproval ApplicationStatus = "PENDING_APPROVAL"
	ApplicationActive          ApplicationStatus = "ACTIVE"
	ApplicationRejected        ApplicationStatus = "REJECTED"
)

// String returns the string representation of the status
func (s ApplicationStatus) String() string {
	return string(s)
}

// Application represents a user's request to be covered under a policy.
type Application struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	PolicyID       int64             `json:"policy_id"`
	Status         ApplicationStatus `json:"status"`
	Age            int               `json:"age"`
	Occupation     string            `json:"occupation"`
	MedicalHistory string            `json:"medical_history,omitempty"`
	AnnualSalary   int64             `json:"annual_salary_cents"`
	MonthlyPremium int64             `json:"monthly_premium_cents"`
	RiskScore      *float64          `json:"risk_score,omitempty"`
	AIAssessment   string            `json:"ai_assessment,omitempty"`
	ApprovalNotes  string            `json:"approval_notes,omitempty"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	DecidedAt      *time.Time        `json:"decided_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// AppendNote appends an audit note to the approval notes. Notes are
// append-only: existing text is never rewritten.
func (a *Application) AppendNote(note string) {
	if note == "" {
		return
	}
	if a.ApprovalNotes == "" {
		a.ApprovalNotes = note
		return
	}
	a.ApprovalNotes = strings.TrimRight(a.ApprovalNotes, "\n") + "\n" + note
}

// IsDecided reports whether the application has reached a terminal state.
func (a *Application) IsDecided() bool {
	return a.Status == ApplicationActive || a.Status == ApplicationRejected
}
