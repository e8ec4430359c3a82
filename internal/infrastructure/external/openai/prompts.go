package openai

import (
	"fmt"

	"github.com/insurhub/underwriter/internal/application/port"
)

func systemPrompt(kind port.ScoringKind) string {
	if kind == port.ApplicationScoring {
		return "You are an insurance underwriting analyst. Assess policy applications and respond with valid JSON " +
			`of the form {"confidence": 0-100, "fraud_score": 0-100, "risk_score": 0-100}. ` +
			"confidence is how legitimate the application looks, fraud_score is the likelihood of misrepresentation, " +
			"risk_score is the underwriting risk where higher means riskier."
	}
	return "You are an insurance claims analyst. Assess claims and respond with valid JSON " +
		`of the form {"confidence": 0-100, "fraud_score": 0-100, "risk_score": 0-100}. ` +
		"confidence is how legitimate the claim looks, fraud_score is the likelihood of fraud, " +
		"risk_score is an overall payability score where higher means safer to pay."
}

func userPrompt(kind port.ScoringKind, payload port.ScoringPayload) string {
	if kind == port.ApplicationScoring {
		return fmt.Sprintf(
			"Assess this policy application:\n- Age: %d\n- Occupation: %s\n- Medical history: %s\n",
			payload.Age, orNone(payload.Occupation), orNone(payload.MedicalHistory),
		)
	}
	return fmt.Sprintf(
		"Assess this insurance claim:\n- Type: %s\n- Amount: %.2f\n- Location: %s\n- Description: %s\n",
		orNone(payload.ClaimType), payload.Amount, orNone(payload.Location), orNone(payload.Description),
	)
}

func orNone(s string) string {
	if s == "" {
		return "not provided"
	}
	return s
}
