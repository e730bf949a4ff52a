package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dinnerpicker/server/internal/module/spin"
	"github.com/dinnerpicker/server/internal/shared/config"
	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// metadataUserIDKey is the metadata key carrying the user identity through
// the Stripe round trip, so asynchronous events can be reconciled back to a
// quota record without a client-supplied identity.
const metadataUserIDKey = "userId"

// QuotaStore is the slice of the spin repository the subscription manager
// writes premium state through.
type QuotaStore interface {
	MergeSubscription(ctx context.Context, userID string, fields map[string]interface{}) error
	FindByCustomerID(ctx context.Context, customerID string) (*spin.UserRecord, error)
}

// Service manages checkout sessions and reconciles Stripe lifecycle events
// into the user's premium flag.
type Service struct {
	cfg    *config.StripeConfig
	store  QuotaStore
	logger *zap.Logger
}

// NewService creates a new billing service.
func NewService(cfg *config.StripeConfig, store QuotaStore, logger *zap.Logger) *Service {
	stripe.Key = cfg.APIKey
	return &Service{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// CreateCheckoutSession creates a subscription-mode checkout session for
// userID and returns the session id. The user identity is embedded in both
// the session and subscription metadata.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", apperrors.BadRequest("User ID is required")
	}
	if s.cfg.APIKey == "" {
		return "", apperrors.Configuration("Stripe API key is not configured")
	}
	if s.cfg.PriceID == "" {
		return "", apperrors.Configuration("Stripe price ID is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserIDKey: userID},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserIDKey, userID)

	sess, err := session.New(params)
	if err != nil {
		return "", apperrors.Provider("failed to create checkout session", err)
	}

	s.logger.Info("checkout session created",
		zap.String("user_id", userID),
		zap.String("session_id", sess.ID),
	)
	return sess.ID, nil
}

// ConstructEvent verifies the webhook signature and parses the event.
func (s *Service) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
}

// HandleEvent reconciles a verified Stripe event into the quota store.
// Every write is a last-write-wins field set, so redelivered events settle
// on the same final state. Events that cannot be attributed to a user are
// dropped with a log line rather than retried.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscriptionUpdate(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		s.logger.Debug("unhandled webhook event type", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	userID := sess.Metadata[metadataUserIDKey]
	if userID == "" {
		s.logger.Warn("checkout session has no user id in metadata, dropping event",
			zap.String("event_id", event.ID),
			zap.String("session_id", sess.ID),
		)
		return nil
	}

	fields := map[string]interface{}{
		"is_premium": true,
	}
	if sess.Customer != nil {
		fields["stripe_customer_id"] = sess.Customer.ID
	}
	if sess.Subscription != nil {
		fields["stripe_subscription_id"] = sess.Subscription.ID
	}

	if err := s.store.MergeSubscription(ctx, userID, fields); err != nil {
		return fmt.Errorf("upgrade user %s: %w", userID, err)
	}

	s.logger.Info("user upgraded to premium", zap.String("user_id", userID))
	return nil
}

func (s *Service) handleSubscriptionUpdate(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	userID, err := s.resolveUser(ctx, &sub)
	if err != nil {
		return err
	}
	if userID == "" {
		s.logger.Warn("no user found for subscription, dropping event",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID),
		)
		return nil
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	fields := map[string]interface{}{
		"is_premium":             sub.Status == stripe.SubscriptionStatusActive,
		"stripe_subscription_id": sub.ID,
		"subscription_status":    string(sub.Status),
		"current_period_end":     periodEnd,
	}
	if sub.Customer != nil {
		fields["stripe_customer_id"] = sub.Customer.ID
	}

	if err := s.store.MergeSubscription(ctx, userID, fields); err != nil {
		return fmt.Errorf("update subscription for user %s: %w", userID, err)
	}

	s.logger.Info("subscription updated",
		zap.String("user_id", userID),
		zap.String("status", string(sub.Status)),
	)
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	userID, err := s.resolveUser(ctx, &sub)
	if err != nil {
		return err
	}
	if userID == "" {
		s.logger.Warn("no user found for deleted subscription, dropping event",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID),
		)
		return nil
	}

	fields := map[string]interface{}{
		"is_premium":          false,
		"subscription_status": spin.SubscriptionStatusCancelled,
	}
	if err := s.store.MergeSubscription(ctx, userID, fields); err != nil {
		return fmt.Errorf("cancel subscription for user %s: %w", userID, err)
	}

	s.logger.Info("subscription cancelled", zap.String("user_id", userID))
	return nil
}

// resolveUser finds the user a subscription event belongs to: metadata first,
// stored customer id second. An empty result with a nil error means the
// event has no target and should be dropped.
func (s *Service) resolveUser(ctx context.Context, sub *stripe.Subscription) (string, error) {
	if userID := sub.Metadata[metadataUserIDKey]; userID != "" {
		return userID, nil
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return "", nil
	}

	rec, err := s.store.FindByCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		if errors.Is(err, spin.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.UserID, nil
}
