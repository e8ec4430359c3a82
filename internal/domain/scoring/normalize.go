package scoring

import (
	"github.com/insurhub/underwriter/internal/domain/entity"
)

// Amount penalty boundaries for claims, in cents.
const (
	largeClaimCents  = 10_000_00
	mediumClaimCents = 5_000_00
)

// Completeness bonus weights. The raw sum can reach 7; the applied bonus is
// capped at maxCompletenessBonus.
const (
	bonusIncidentDate    = 2.0
	bonusLocation        = 1.5
	bonusLongDescription = 1.5
	bonusDocuments       = 2.0
	maxCompletenessBonus = 4.0

	longDescriptionChars = 50
)

// ClaimContext carries the claim facts that adjust the AI score. Only
// value-typed fields: given identical inputs Normalize is bit-for-bit
// deterministic.
type ClaimContext struct {
	AmountCents      int64
	HasIncidentDate  bool
	IncidentLocation string
	Description      string
	DocumentCount    int
}

// ApplicationContext carries application facts. Application risk is taken
// from the score result unadjusted, so the context currently contributes
// nothing; it exists so the two normalization paths share one signature
// shape and the asymmetry stays visible at the call site.
type ApplicationContext struct {
	Age        int
	Occupation string
}

// NormalizedScore is the output of score normalization.
type NormalizedScore struct {
	Confidence float64
	Fraud      float64
	Risk       float64
}

// NormalizeClaim combines the AI-provided scores with deterministic
// adjustments from the claim itself:
//
//	risk = confidence - fraud/2, minus amount penalties, plus a capped
//	completeness bonus, clamped to [0, 100].
func NormalizeClaim(result entity.ScoreResult, cctx ClaimContext) NormalizedScore {
	risk := result.Confidence - result.Fraud*0.5

	switch {
	case cctx.AmountCents > largeClaimCents:
		risk -= 10
	case cctx.AmountCents > mediumClaimCents:
		risk -= 5
	}

	risk += completenessBonus(cctx)

	return NormalizedScore{
		Confidence: clamp(result.Confidence),
		Fraud:      clamp(result.Fraud),
		Risk:       clamp(risk),
	}
}

// NormalizeApplication passes the AI-provided risk through unadjusted.
// Applications are deliberately simpler than claims: the asymmetry is part
// of the contract, not an omission.
func NormalizeApplication(result entity.ScoreResult, _ ApplicationContext) NormalizedScore {
	return NormalizedScore{
		Confidence: clamp(result.Confidence),
		Fraud:      clamp(result.Fraud),
		Risk:       clamp(result.Risk),
	}
}

// completenessBonus rewards well-documented claims with up to
// maxCompletenessBonus extra points.
func completenessBonus(cctx ClaimContext) float64 {
	var bonus float64
	if cctx.HasIncidentDate {
		bonus += bonusIncidentDate
	}
	if cctx.IncidentLocation != "" {
		bonus += bonusLocation
	}
	if len(cctx.Description) > longDescriptionChars {
		bonus += bonusLongDescription
	}
	if cctx.DocumentCount > 0 {
		bonus += bonusDocuments
	}
	if bonus > maxCompletenessBonus {
		bonus = maxCompletenessBonus
	}
	return bonus
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
