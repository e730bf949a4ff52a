package billing

import (
	"errors"
	"net/http"

	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for billing.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the billing routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	billing := r.Group("/billing")
	{
		billing.POST("/checkout", h.CreateCheckoutSession)
	}
}

// CheckoutRequest is the request body for POST /billing/checkout.
type CheckoutRequest struct {
	UserID string `json:"userId"`
}

// CheckoutResponse is the response body for POST /billing/checkout.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateCheckoutSession creates a Stripe checkout session for the premium
// upgrade.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	sessionID, err := h.service.CreateCheckoutSession(c.Request.Context(), req.UserID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			h.logger.Error("checkout session creation failed",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			c.JSON(appErr.StatusCode, apperrors.ErrorResponse{
				Error: apperrors.ErrorDetail{Code: appErr.Code, Message: appErr.Message},
			})
			return
		}
		h.logger.Error("checkout session creation failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{SessionID: sessionID})
}
