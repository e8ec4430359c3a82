// Package scoring holds the pure score arithmetic of the adjudication
// workflow: threshold configuration and risk normalization. Nothing in this
// package performs I/O or keeps state between calls.
package scoring

import "fmt"

// Thresholds defines the decision boundaries for risk-based routing.
// Risk scores run 0-100 where higher means more approvable.
type Thresholds struct {
	// ClaimAutoApprove is the lower bound (inclusive) for auto-approving a
	// claim. Default: 90.
	ClaimAutoApprove float64

	// ClaimAdminReview is the lower bound (inclusive) for routing a claim to
	// admin review; anything below goes to standard review. Default: 70.
	ClaimAdminReview float64

	// ApplicationAutoApprove is the upper bound (exclusive) for
	// auto-activating an application whose policy does not require manual
	// approval. Default: 30. Note the inverted sense: application risk
	// below this bound is considered safe.
	ApplicationAutoApprove float64
}

// DefaultThresholds returns the production threshold configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ClaimAutoApprove:       90,
		ClaimAdminReview:       70,
		ApplicationAutoApprove: 30,
	}
}

// Validate ensures threshold values are within range and logically ordered.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"claim_auto_approve":       t.ClaimAutoApprove,
		"claim_admin_review":       t.ClaimAdminReview,
		"application_auto_approve": t.ApplicationAutoApprove,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %.2f", name, v)
		}
	}

	if t.ClaimAutoApprove <= t.ClaimAdminReview {
		return fmt.Errorf("claim_auto_approve must be greater than claim_admin_review (auto: %.2f, review: %.2f)",
			t.ClaimAutoApprove, t.ClaimAdminReview)
	}

	return nil
}
