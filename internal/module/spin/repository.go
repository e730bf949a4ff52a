package spin

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository defines the interface for quota record data access.
//
// All mutation goes through single-statement primitives so that the counter
// stays consistent under concurrent requests without any in-process locking.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*UserRecord, error)
	GetOrCreate(ctx context.Context, userID string, startingSpins int) (*UserRecord, bool, error)
	ConsumeSpin(ctx context.Context, userID string) (int, error)
	MergeSubscription(ctx context.Context, userID string, fields map[string]interface{}) error
	FindByCustomerID(ctx context.Context, customerID string) (*UserRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new quota record repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetOrCreate fetches the record for userID, creating it with the starting
// allotment on first observation. The bool result reports whether a record
// was created. A concurrent create racing on the primary key falls back to a
// plain fetch.
func (r *repository) GetOrCreate(ctx context.Context, userID string, startingSpins int) (*UserRecord, bool, error) {
	var rec UserRecord
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Attrs(UserRecord{UserID: userID, SpinsRemaining: startingSpins}).
		FirstOrCreate(&rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			existing, err := r.GetByUserID(ctx, userID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, res.Error
	}
	return &rec, res.RowsAffected > 0, nil
}

// ConsumeSpin decrements the spin counter by one and stamps the consumption
// time, guarded by spins_remaining > 0 in the same statement so the counter
// can never go negative. Returns the remaining count after the decrement,
// ErrUserNotFound for an unknown user, or ErrNoSpinsRemaining when the
// counter is already at zero.
func (r *repository) ConsumeSpin(ctx context.Context, userID string) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&UserRecord{}).
		Where("user_id = ? AND spins_remaining > 0", userID).
		Updates(map[string]interface{}{
			"spins_remaining": gorm.Expr("spins_remaining - 1"),
			"last_spin_at":    time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByUserID(ctx, userID); err != nil {
			return 0, err
		}
		return 0, ErrNoSpinsRemaining
	}

	rec, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return rec.SpinsRemaining, nil
}

// MergeSubscription applies a last-write-wins field set to the record for
// userID, creating the record first if the user has never checked their
// quota. Replayed webhook deliveries land on the same final state.
func (r *repository) MergeSubscription(ctx context.Context, userID string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&UserRecord{}).
		Where("user_id = ?", userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Spins default to the starting allotment at the database level.
	if err := r.db.WithContext(ctx).Create(&UserRecord{UserID: userID}).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Model(&UserRecord{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

func (r *repository) FindByCustomerID(ctx context.Context, customerID string) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		Order("created_at ASC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &rec, nil
}
