package spin

import (
	"time"
)

// DefaultStartingSpins is the free-tier allotment granted when a user record
// is first observed.
const DefaultStartingSpins = 3

// SubscriptionStatus values persisted on the user record.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// UserRecord is the per-user quota record. It is created lazily on the first
// quota check, decremented on consumption, and updated by the billing module
// when the subscription lifecycle changes. Records are never deleted.
type UserRecord struct {
	UserID         string `json:"user_id" gorm:"primaryKey;column:user_id"`
	SpinsRemaining int    `json:"spins_remaining" gorm:"column:spins_remaining;not null;default:3"`
	IsPremium      bool   `json:"is_premium" gorm:"column:is_premium;not null;default:false"`

	// Subscription reconciliation, written by webhook handling only.
	StripeCustomerID     string     `json:"-" gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID string     `json:"-" gorm:"column:stripe_subscription_id"`
	SubscriptionStatus   string     `json:"-" gorm:"column:subscription_status"`
	CurrentPeriodEnd     *time.Time `json:"-" gorm:"column:current_period_end"`

	LastSpinAt *time.Time `json:"last_spin_at,omitempty" gorm:"column:last_spin_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (UserRecord) TableName() string {
	return "user_records"
}

// QuotaStatus is the result of a quota check.
type QuotaStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}
