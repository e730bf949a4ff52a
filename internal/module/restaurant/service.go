package restaurant

import (
	"context"
	"errors"

	"github.com/dinnerpicker/server/internal/module/spin"
	"github.com/dinnerpicker/server/internal/utils/metrics"
	"go.uber.org/zap"
)

// ErrNoRestaurantsFound is returned when the search yields no candidates.
// It must stay distinguishable from quota exhaustion: the two call for
// different user actions (broaden the search vs upgrade).
var ErrNoRestaurantsFound = errors.New("no restaurants found")

// QuotaGate gates picks behind the per-user spin quota.
type QuotaGate interface {
	CanUse(ctx context.Context, userID string) (*spin.QuotaStatus, error)
	Consume(ctx context.Context, userID string) (int, error)
}

// Finder searches for candidate restaurants near a location.
type Finder interface {
	Find(ctx context.Context, loc Location, radiusMiles float64, cuisine string) []Candidate
}

// DetailProvider produces the detail record for a restaurant name.
type DetailProvider interface {
	Enrich(ctx context.Context, restaurantName string) (*Details, error)
}

// PickResult is the outcome of a successful pick.
type PickResult struct {
	Restaurant     Candidate `json:"restaurant"`
	SpinsRemaining int       `json:"spinsRemaining"`
}

// Service orchestrates the picking flow: quota check, search, uniform random
// pick, quota consumption. Consumption happens only after a successful pick,
// so an empty search never costs a spin.
type Service struct {
	gate     QuotaGate
	finder   Finder
	picker   *Picker
	enricher DetailProvider
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a new restaurant service. Metrics may be nil.
func NewService(gate QuotaGate, finder Finder, picker *Picker, enricher DetailProvider, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		gate:     gate,
		finder:   finder,
		picker:   picker,
		enricher: enricher,
		logger:   logger,
		metrics:  m,
	}
}

func (s *Service) countPick(outcome string) {
	if s.metrics != nil {
		s.metrics.PicksTotal.WithLabelValues(outcome).Inc()
	}
}

// Pick runs the full flow for one spin request.
func (s *Service) Pick(ctx context.Context, userID string, loc Location, radiusMiles float64, cuisine string) (*PickResult, error) {
	status, err := s.gate.CanUse(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		s.countPick("quota_exhausted")
		return nil, spin.ErrNoSpinsRemaining
	}

	candidates := s.finder.Find(ctx, loc, radiusMiles, cuisine)
	if len(candidates) == 0 {
		s.countPick("no_results")
		return nil, ErrNoRestaurantsFound
	}

	picked, err := s.picker.Pick(candidates)
	if err != nil {
		return nil, err
	}

	// Re-checked inside the store; two racing requests can each reach here
	// and the second one may fail against a counter that hit zero.
	remaining, err := s.gate.Consume(ctx, userID)
	if err != nil {
		if errors.Is(err, spin.ErrNoSpinsRemaining) {
			s.countPick("quota_exhausted")
		}
		return nil, err
	}
	s.countPick("picked")

	s.logger.Info("restaurant picked",
		zap.String("user_id", userID),
		zap.String("restaurant", picked.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("spins_remaining", remaining),
	)

	return &PickResult{Restaurant: picked, SpinsRemaining: remaining}, nil
}

// Details enriches a previously picked restaurant name.
func (s *Service) Details(ctx context.Context, restaurantName string) (*Details, error) {
	return s.enricher.Enrich(ctx, restaurantName)
}
