package restaurant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dinnerpicker/server/internal/shared/config"
	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnricherTestClient(t *testing.T, baseURL string) *Enricher {
	t.Helper()
	e, err := NewEnricher(&config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop(), nil)
	require.NoError(t, err)
	return e
}

func chatBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestNewEnricher_MissingAPIKey(t *testing.T) {
	_, err := NewEnricher(&config.LLMConfig{}, zap.NewNop(), nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestEnricher_Enrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Trattoria Roma")

		w.Write([]byte(chatBody(`{
			"address": "12 Via Appia",
			"cuisineType": "Italian",
			"customerRating": "4.5 stars",
			"recentReview": "Great carbonara."
		}`)))
	}))
	defer srv.Close()

	e := newEnricherTestClient(t, srv.URL)
	details, err := e.Enrich(context.Background(), "Trattoria Roma")
	require.NoError(t, err)
	assert.Equal(t, "12 Via Appia", details.Address)
	assert.Equal(t, "Italian", details.CuisineType)
	assert.Equal(t, "4.5 stars", details.CustomerRating)
	assert.Equal(t, "Great carbonara.", details.RecentReview)
}

func TestEnricher_Enrich_EmptyName(t *testing.T) {
	e := newEnricherTestClient(t, "http://localhost:0")

	_, err := e.Enrich(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestEnricher_Enrich_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	e := newEnricherTestClient(t, srv.URL)
	_, err := e.Enrich(context.Background(), "Somewhere")
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentFailed)
}

func TestEnricher_Enrich_UnstructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody("I'm sorry, I can't help with that.")))
	}))
	defer srv.Close()

	e := newEnricherTestClient(t, srv.URL)
	_, err := e.Enrich(context.Background(), "Somewhere")
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentFailed)
}

func TestEnricher_Enrich_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := newEnricherTestClient(t, srv.URL)
	_, err := e.Enrich(context.Background(), "Somewhere")
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentFailed)
}
