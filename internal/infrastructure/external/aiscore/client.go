// Package aiscore implements port.AIScorer against the AI risk-assessment
// microservice. The collaborator is best-effort: one attempt per call, a
// bounded timeout, and a deterministic fallback score when anything fails.
package aiscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
)

const defaultTimeout = 5 * time.Second

// maxResponseBytes bounds how much of a response body is read. The scoring
// service returns small JSON documents; anything larger is broken.
const maxResponseBytes = 1 << 20

// Client calls the AI risk-assessment service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a new scoring client. timeout bounds each call
// end-to-end, including connection setup and body read.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// scoreResponse accepts the scoring service's response in any of its
// historical shapes: flat fields, 0-1 fractions instead of percentages, and
// a categorical risk_level in place of a numeric risk_score.
type scoreResponse struct {
	Confidence *float64 `json:"confidence"`
	FraudScore *float64 `json:"fraud_score"`
	RiskScore  *float64 `json:"risk_score"`
	RiskLevel  string   `json:"risk_level"`
}

// Score requests a risk assessment for the payload. It makes exactly one
// attempt; any transport, status or parse failure degrades to the fixed
// fallback result.
func (c *Client) Score(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal scoring request", zap.Error(err), zap.String("kind", string(kind)))
		return entity.FallbackScoreResult("")
	}

	url := fmt.Sprintf("%s/analyze/%s", c.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to build scoring request", zap.Error(err), zap.String("url", url))
		return entity.FallbackScoreResult("")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Scoring service unreachable, using fallback score",
			zap.Error(err),
			zap.String("kind", string(kind)))
		return entity.FallbackScoreResult("")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("Failed to read scoring response, using fallback score", zap.Error(err))
		return entity.FallbackScoreResult("")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Scoring service returned non-200, using fallback score",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(kind)))
		return entity.FallbackScoreResult(string(raw))
	}

	var parsed scoreResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Warn("Failed to parse scoring response, using fallback score",
			zap.Error(err),
			zap.String("body", string(raw)))
		return entity.FallbackScoreResult(string(raw))
	}

	result, ok := normalize(parsed, string(raw))
	if !ok {
		c.logger.Warn("Scoring response missing usable fields, using fallback score",
			zap.String("body", string(raw)))
		return entity.FallbackScoreResult(string(raw))
	}

	c.logger.Debug("Scoring completed",
		zap.String("kind", string(kind)),
		zap.Float64("confidence", result.Confidence),
		zap.Float64("fraud", result.Fraud),
		zap.Float64("risk", result.Risk))

	return result
}

// normalize converts a parsed response into a ScoreResult on the 0-100
// scale. Confidence and a risk signal (numeric risk_score or categorical
// risk_level) are required; missing fraud defaults to 0.
func normalize(parsed scoreResponse, raw string) (entity.ScoreResult, bool) {
	if parsed.Confidence == nil {
		return entity.ScoreResult{}, false
	}

	result := entity.ScoreResult{
		Confidence: toPercent(*parsed.Confidence),
		Source:     entity.ScoreSourceAI,
		Raw:        raw,
	}
	if parsed.FraudScore != nil {
		result.Fraud = toPercent(*parsed.FraudScore)
	}

	switch {
	case parsed.RiskScore != nil:
		result.Risk = toPercent(*parsed.RiskScore)
	case parsed.RiskLevel != "":
		risk, ok := riskLevelToScore(parsed.RiskLevel)
		if !ok {
			return entity.ScoreResult{}, false
		}
		result.Risk = risk
	default:
		return entity.ScoreResult{}, false
	}

	return result, true
}

// toPercent maps a 0-1 fraction onto the 0-100 scale; values already above
// 1 are taken as percentages.
func toPercent(v float64) float64 {
	if v > 0 && v <= 1 {
		return v * 100
	}
	return v
}

func riskLevelToScore(level string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "LOW":
		return 25, true
	case "MEDIUM":
		return 50, true
	case "HIGH":
		return 85, true
	default:
		return 0, false
	}
}
