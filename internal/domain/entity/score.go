package entity

// ScoreSource identifies where a score result came from.
type ScoreSource string

const (
	ScoreSourceAI       ScoreSource = "ai"
	ScoreSourceFallback ScoreSource = "fallback"
)

// Fallback score values used when the AI collaborator cannot be reached.
// A medium-risk default: never good enough to auto-approve, never bad
// enough to auto-reject.
const (
	FallbackConfidence = 70.0
	FallbackFraud      = 30.0
	FallbackRisk       = 60.0
)

// ScoreResult is the transient outcome of one scoring call. It is consumed
// once per adjudication; only its derived fields are persisted onto the
// Application or Claim.
type ScoreResult struct {
	Confidence float64     `json:"confidence"`
	Fraud      float64     `json:"fraud"`
	Risk       float64     `json:"risk"`
	Source     ScoreSource `json:"source"`
	Raw        string      `json:"raw,omitempty"`
}

// FallbackScoreResult returns the fixed medium-risk default used when the
// AI collaborator is unavailable.
func FallbackScoreResult(raw string) ScoreResult {
	if raw == "" {
		raw = `{"source":"fallback"}`
	}
	return ScoreResult{
		Confidence: FallbackConfidence,
		Fraud:      FallbackFraud,
		Risk:       FallbackRisk,
		Source:     ScoreSourceFallback,
		Raw:        raw,
	}
}

// IsFallback reports whether the result came from the deterministic fallback
// rather than the AI collaborator.
func (r ScoreResult) IsFallback() bool {
	return r.Source == ScoreSourceFallback
}
