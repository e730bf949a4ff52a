package restaurant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dinnerpicker/server/internal/shared/config"
	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/dinnerpicker/server/internal/utils/metrics"
	"go.uber.org/zap"
)

const enricherSystemPrompt = `You are a restaurant expert providing details about restaurants. ` +
	`Given a restaurant name, provide its address, cuisine type, customer rating, and a recent review. ` +
	`Make your best judgement as to whether the info matches the restaurant the user had in mind. ` +
	`Respond with a JSON object with exactly these string fields: ` +
	`"address", "cuisineType", "customerRating", "recentReview".`

// Enricher produces a detail record for a picked restaurant by asking a
// text-generation provider. The output is best-effort plausible text, not
// verified data; no factual validation is performed or expected.
type Enricher struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewEnricher creates a new detail enricher. Metrics may be nil.
func NewEnricher(cfg *config.LLMConfig, logger *zap.Logger, m *metrics.Metrics) (*Enricher, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.Configuration("LLM API key is not configured")
	}
	return &Enricher{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: m,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Enrich returns the detail record for restaurantName. It fails with an
// enrichment error when the provider returns no usable structured output.
func (e *Enricher) Enrich(ctx context.Context, restaurantName string) (*Details, error) {
	if restaurantName == "" {
		return nil, apperrors.BadRequest("Restaurant name is required")
	}

	start := time.Now()
	details, err := e.enrich(ctx, restaurantName)
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.ObserveProvider("llm", status, time.Since(start))
	}
	return details, err
}

func (e *Enricher) enrich(ctx context.Context, restaurantName string) (*Details, error) {
	body := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: enricherSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Restaurant Name: %s", restaurantName)},
		},
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperrors.EnrichmentFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		e.logger.Warn("LLM request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", errBody),
		)
		return nil, apperrors.EnrichmentFailed(fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, apperrors.EnrichmentFailed(fmt.Errorf("decode response: %w", err))
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, apperrors.EnrichmentFailed(fmt.Errorf("no choices in response"))
	}

	var details Details
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &details); err != nil {
		return nil, apperrors.EnrichmentFailed(fmt.Errorf("parse structured output: %w", err))
	}
	return &details, nil
}
