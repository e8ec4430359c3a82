package entity

import "time"

// Policy represents a product the insurer offers. Applications reference a
// policy; the policy itself is owned by the surrounding catalog system and is
// read-only here.
type Policy struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	MonthlyPremium   int64     `json:"monthly_premium_cents"`
	CoverageCents    int64     `json:"coverage_cents"`
	RequiresApproval bool      `json:"requires_approval"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}
