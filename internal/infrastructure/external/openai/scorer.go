// Package openai implements port.AIScorer on the OpenAI chat completion
// API. It is an alternative to the dedicated scoring microservice, selected
// by configuration; both share the same contract: one attempt, bounded
// timeout, deterministic fallback on any failure.
package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
)

// Scorer implements port.AIScorer using OpenAI.
type Scorer struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewScorer creates a new OpenAI scorer.
func NewScorer(apiKey, model string, temperature float32, timeout time.Duration, logger *zap.Logger) *Scorer {
	return &Scorer{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

type completionScores struct {
	Confidence *float64 `json:"confidence"`
	FraudScore *float64 `json:"fraud_score"`
	RiskScore  *float64 `json:"risk_score"`
}

// Score assesses the payload with a single chat completion call. Transport
// errors, empty responses and unparseable content all degrade to the fixed
// fallback result.
func (s *Scorer) Score(ctx context.Context, kind port.ScoringKind, payload port.ScoringPayload) entity.ScoreResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(kind),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(kind, payload),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		s.logger.Warn("OpenAI scoring call failed, using fallback score",
			zap.Error(err),
			zap.String("kind", string(kind)))
		return entity.FallbackScoreResult("")
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn("OpenAI returned no choices, using fallback score", zap.String("kind", string(kind)))
		return entity.FallbackScoreResult("")
	}

	content := resp.Choices[0].Message.Content

	var parsed completionScores
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Some models wrap JSON in markdown fences despite the response
		// format hint.
		if jsonStr := extractJSON(content); jsonStr != "" {
			err = json.Unmarshal([]byte(jsonStr), &parsed)
		}
		if err != nil {
			s.logger.Warn("Failed to parse OpenAI scoring response, using fallback score",
				zap.Error(err),
				zap.String("content", content))
			return entity.FallbackScoreResult(content)
		}
	}

	if parsed.Confidence == nil || parsed.RiskScore == nil {
		s.logger.Warn("OpenAI scoring response missing fields, using fallback score",
			zap.String("content", content))
		return entity.FallbackScoreResult(content)
	}

	result := entity.ScoreResult{
		Confidence: *parsed.Confidence,
		Risk:       *parsed.RiskScore,
		Source:     entity.ScoreSourceAI,
		Raw:        content,
	}
	if parsed.FraudScore != nil {
		result.Fraud = *parsed.FraudScore
	}

	s.logger.Debug("OpenAI scoring completed",
		zap.String("kind", string(kind)),
		zap.Float64("confidence", result.Confidence),
		zap.Float64("fraud", result.Fraud),
		zap.Float64("risk", result.Risk))

	return result
}

// extractJSON pulls a JSON object out of markdown code fences.
func extractJSON(content string) string {
	start := strings.Index(content, "```json")
	if start == -1 {
		start = strings.Index(content, "```")
		if start == -1 {
			return ""
		}
		start += 3
	} else {
		start += 7
	}

	end := strings.Index(content[start:], "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(content[start : start+end])
}
