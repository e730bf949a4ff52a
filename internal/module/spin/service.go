package spin

import (
	"context"

	"github.com/dinnerpicker/server/internal/utils/metrics"
	"go.uber.org/zap"
)

// Service implements the quota gate: it decides whether a spin may proceed
// and records consumption after the guarded action succeeds.
type Service struct {
	repo          Repository
	startingSpins int
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewService creates a new quota gate service. Metrics may be nil.
func NewService(repo Repository, startingSpins int, logger *zap.Logger, m *metrics.Metrics) *Service {
	if startingSpins <= 0 {
		startingSpins = DefaultStartingSpins
	}
	return &Service{
		repo:          repo,
		startingSpins: startingSpins,
		logger:        logger,
		metrics:       m,
	}
}

// CanUse reports whether userID may spin. A user with no record gets one
// created with the starting allotment. Premium users are always allowed and
// their counter is never consulted.
func (s *Service) CanUse(ctx context.Context, userID string) (*QuotaStatus, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	rec, created, err := s.repo.GetOrCreate(ctx, userID, s.startingSpins)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("created quota record",
			zap.String("user_id", userID),
			zap.Int("spins_remaining", rec.SpinsRemaining),
		)
	}

	if rec.IsPremium {
		return &QuotaStatus{Allowed: true, Remaining: rec.SpinsRemaining}, nil
	}
	return &QuotaStatus{Allowed: rec.SpinsRemaining > 0, Remaining: rec.SpinsRemaining}, nil
}

// Consume charges one spin after a successful pick. The counter is re-checked
// inside the decrement statement rather than trusted from the earlier CanUse,
// so it never goes negative. Two requests racing through the CanUse/Consume
// gap can overconsume past zero by at most one unit; the quota is an abuse
// deterrent, not a hard limit, and that window is accepted rather than closed
// with locking. Premium users are not charged.
func (s *Service) Consume(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}

	rec, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rec.IsPremium {
		return rec.SpinsRemaining, nil
	}

	remaining, err := s.repo.ConsumeSpin(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.SpinsConsumedTotal.Inc()
	}

	s.logger.Info("spin consumed",
		zap.String("user_id", userID),
		zap.Int("spins_remaining", remaining),
	)
	return remaining, nil
}
