package spin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the spin quota.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new spin handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the spin routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	spins := r.Group("/spins")
	{
		spins.POST("/check", h.Check)
		spins.POST("/use", h.Use)
	}
}

// SpinRequest is the request body for both spin endpoints.
type SpinRequest struct {
	UserID string `json:"userId"`
}

// CheckResponse is the response body for POST /spins/check.
type CheckResponse struct {
	CanSpin        bool `json:"canSpin"`
	SpinsRemaining int  `json:"spinsRemaining"`
}

// UseResponse is the response body for POST /spins/use.
type UseResponse struct {
	Success        bool `json:"success"`
	SpinsRemaining int  `json:"spinsRemaining"`
}

// Check reports whether the user can spin, creating the quota record with
// the starting allotment on first sight.
func (h *Handler) Check(c *gin.Context) {
	var req SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	status, err := h.service.CanUse(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("spin check failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check spins"})
		return
	}

	c.JSON(http.StatusOK, CheckResponse{
		CanSpin:        status.Allowed,
		SpinsRemaining: status.Remaining,
	})
}

// Use consumes one spin.
func (h *Handler) Use(c *gin.Context) {
	var req SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	remaining, err := h.service.Consume(c.Request.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, ErrNoSpinsRemaining):
			c.JSON(http.StatusForbidden, gin.H{"error": "No spins remaining"})
		default:
			h.logger.Error("spin use failed", zap.String("user_id", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to use spin"})
		}
		return
	}

	c.JSON(http.StatusOK, UseResponse{
		Success:        true,
		SpinsRemaining: remaining,
	})
}
