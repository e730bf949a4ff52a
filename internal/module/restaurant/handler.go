package restaurant

import (
	"errors"
	"net/http"

	"github.com/dinnerpicker/server/internal/module/spin"
	apperrors "github.com/dinnerpicker/server/internal/shared/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for restaurant picking.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new restaurant handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the restaurant routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	restaurants := r.Group("/restaurants")
	{
		restaurants.POST("/pick", h.Pick)
		restaurants.POST("/details", h.Details)
	}
}

// PickRequest is the request body for POST /restaurants/pick.
type PickRequest struct {
	UserID      string  `json:"userId"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RadiusMiles float64 `json:"radiusMiles"`
	Cuisine     string  `json:"cuisine"`
}

// DetailsRequest is the request body for POST /restaurants/details.
type DetailsRequest struct {
	RestaurantName string `json:"restaurantName"`
}

// Pick checks the user's quota, searches nearby, picks one candidate at
// random, and charges a spin.
func (h *Handler) Pick(c *gin.Context) {
	var req PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}
	if req.RadiusMiles <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Radius must be positive"})
		return
	}

	result, err := h.service.Pick(
		c.Request.Context(),
		req.UserID,
		Location{Latitude: req.Latitude, Longitude: req.Longitude},
		req.RadiusMiles,
		req.Cuisine,
	)
	if err != nil {
		switch {
		case errors.Is(err, spin.ErrNoSpinsRemaining):
			c.JSON(http.StatusForbidden, gin.H{"error": "No spins remaining"})
		case errors.Is(err, ErrNoRestaurantsFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No Restaurants Found"})
		default:
			h.logger.Error("pick failed", zap.String("user_id", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pick a restaurant"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Details returns LLM-generated details for a restaurant name.
func (h *Handler) Details(c *gin.Context) {
	var req DetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RestaurantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Restaurant name is required"})
		return
	}

	details, err := h.service.Details(c.Request.Context(), req.RestaurantName)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.StatusCode, apperrors.ErrorResponse{
				Error: apperrors.ErrorDetail{Code: appErr.Code, Message: appErr.Message},
			})
			return
		}
		h.logger.Error("details lookup failed", zap.String("restaurant", req.RestaurantName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get restaurant details"})
		return
	}

	c.JSON(http.StatusOK, details)
}
