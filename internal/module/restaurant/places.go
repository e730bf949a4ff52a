package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dinnerpicker/server/internal/shared/config"
	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/dinnerpicker/server/internal/utils/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	// CuisineAny is the sentinel filter value meaning "no cuisine filter".
	CuisineAny = "Anything"

	metersPerMile = 1609.34
)

// PlacesClient calls the places-search provider (Google Places nearby
// search). It is the one collaborator whose failures never reach the caller:
// every provider or transport failure degrades to an empty candidate list so
// a flaky third party cannot crash the picking flow. The reason is logged
// for operators.
type PlacesClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Candidate]
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPlacesClient creates a new places client. A missing API key is a
// configuration error, not a search result. Metrics may be nil.
func NewPlacesClient(cfg *config.PlacesConfig, logger *zap.Logger, m *metrics.Metrics) (*PlacesClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.Configuration("places API key is not configured")
	}

	breaker := gobreaker.NewCircuitBreaker[[]Candidate](gobreaker.Settings{
		Name:    "places",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &PlacesClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
		metrics: m,
	}, nil
}

// Find returns nearby restaurant candidates. Callers must treat an empty
// result as "no restaurants found"; it is indistinguishable from a degraded
// provider by design.
func (c *PlacesClient) Find(ctx context.Context, loc Location, radiusMiles float64, cuisine string) []Candidate {
	start := time.Now()
	candidates, err := c.breaker.Execute(func() ([]Candidate, error) {
		return c.search(ctx, loc, radiusMiles, cuisine)
	})
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "degraded"
		}
		c.metrics.ObserveProvider("places", status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("places search degraded to empty result",
			zap.Float64("latitude", loc.Latitude),
			zap.Float64("longitude", loc.Longitude),
			zap.Error(err),
		)
		return nil
	}
	return candidates
}

// placesResponse mirrors the nearby search response shape.
type placesResponse struct {
	Results []struct {
		Name             string   `json:"name"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PlaceID          string   `json:"place_id"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (c *PlacesClient) search(ctx context.Context, loc Location, radiusMiles float64, cuisine string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude))
	params.Set("radius", strconv.FormatFloat(radiusMiles*metersPerMile, 'f', -1, 64))
	params.Set("type", "restaurant")
	if cuisine != "" && !strings.EqualFold(cuisine, CuisineAny) {
		params.Set("keyword", cuisine)
	}
	params.Set("key", c.apiKey)

	reqURL := c.baseURL + "/nearbysearch/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places request failed with status %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		// Reachable but rejected. Not a breaker failure: a persistent quota
		// or key problem should not latch the circuit open.
		c.logger.Warn("places API returned error status",
			zap.String("status", body.Status),
			zap.String("error_message", body.ErrorMessage),
		)
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		candidates = append(candidates, Candidate{
			Name:         r.Name,
			Rating:       r.Rating,
			RatingsTotal: r.UserRatingsTotal,
			PlaceID:      r.PlaceID,
		})
	}
	return candidates, nil
}
