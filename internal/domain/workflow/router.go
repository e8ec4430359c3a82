package workflow

import (
	"fmt"

	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/scoring"
)

// FallbackAnnotation is appended to claims whose scores came from the
// deterministic fallback. Fallback scores never auto-approve.
const FallbackAnnotation = "AI unavailable: manual review required"

// Decision is an admin's verdict on an entity awaiting human review.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// IsValid returns true if the decision is one of the known verdicts.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// ClaimOutcome is the routing result for a freshly scored claim.
type ClaimOutcome struct {
	NextState       entity.ClaimStatus
	AutoApproved    bool
	DispatchPayment bool
	Annotation      string
}

// RouteClaim evaluates the routing table for a scored claim submission:
//
//	risk >= ClaimAutoApprove  -> APPROVED, auto, immediate payout
//	risk >= ClaimAdminReview  -> PENDING_ADMIN_REVIEW
//	otherwise                 -> UNDER_REVIEW
//
// Fallback scores are a hard override: the claim goes to UNDER_REVIEW no
// matter what risk the fallback values would imply.
func RouteClaim(score scoring.NormalizedScore, source entity.ScoreSource, th scoring.Thresholds) ClaimOutcome {
	if source == entity.ScoreSourceFallback {
		return ClaimOutcome{
			NextState:  entity.ClaimUnderReview,
			Annotation: FallbackAnnotation,
		}
	}

	switch {
	case score.Risk >= th.ClaimAutoApprove:
		return ClaimOutcome{
			NextState:       entity.ClaimApproved,
			AutoApproved:    true,
			DispatchPayment: true,
			Annotation:      fmt.Sprintf("Auto-approved: risk score %.1f >= %.1f", score.Risk, th.ClaimAutoApprove),
		}
	case score.Risk >= th.ClaimAdminReview:
		return ClaimOutcome{
			NextState:  entity.ClaimPendingAdminReview,
			Annotation: fmt.Sprintf("Admin review required: risk score %.1f in [%.1f, %.1f)", score.Risk, th.ClaimAdminReview, th.ClaimAutoApprove),
		}
	default:
		return ClaimOutcome{
			NextState:  entity.ClaimUnderReview,
			Annotation: fmt.Sprintf("Standard review: risk score %.1f below %.1f", score.Risk, th.ClaimAdminReview),
		}
	}
}

// ApplicationFacts carries everything application routing looks at.
type ApplicationFacts struct {
	Risk                float64
	RequiresApproval    bool
	Age                 int
	MonthlyPremiumCents int64
	AnnualSalaryCents   int64
}

// Auto-approval gates carried over from the underwriting rules: applicants
// must be 18-65 and the premium must fit within one month of salary.
const (
	minAutoApproveAge = 18
	maxAutoApproveAge = 65
)

// ApplicationOutcome is the routing result for a scored application.
type ApplicationOutcome struct {
	NextState       entity.ApplicationStatus
	AutoApproved    bool
	DispatchPayment bool
	Reasons         []string
}

// RouteApplication decides between immediate activation and admin review.
// Activation requires every gate to pass; each failed gate contributes a
// reason recorded in the approval notes.
func RouteApplication(facts ApplicationFacts, th scoring.Thresholds) ApplicationOutcome {
	var reasons []string

	if facts.RequiresApproval {
		reasons = append(reasons, "Policy requires manual approval.")
	}
	if facts.Risk >= th.ApplicationAutoApprove {
		reasons = append(reasons, fmt.Sprintf("Risk score %.1f >= %.1f.", facts.Risk, th.ApplicationAutoApprove))
	}
	if facts.Age < minAutoApproveAge || facts.Age > maxAutoApproveAge {
		reasons = append(reasons, "Age outside auto-approval range.")
	}
	if facts.AnnualSalaryCents <= 0 || facts.MonthlyPremiumCents > facts.AnnualSalaryCents/12 {
		reasons = append(reasons, "Premium exceeds monthly income check.")
	}

	if len(reasons) == 0 {
		return ApplicationOutcome{
			NextState:       entity.ApplicationActive,
			AutoApproved:    true,
			DispatchPayment: true,
		}
	}

	return ApplicationOutcome{
		NextState: entity.ApplicationPendingApproval,
		Reasons:   reasons,
	}
}
