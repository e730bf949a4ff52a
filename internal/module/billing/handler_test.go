package billing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dinnerpicker/server/internal/shared/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newCheckoutRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"))
	return r
}

func postCheckout(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/billing/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutHandler_MissingUserID(t *testing.T) {
	r := newCheckoutRouter(newBillingService(&fakeQuotaStore{}))

	w := postCheckout(r, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User ID is required")

	w = postCheckout(r, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandler_MisconfiguredStripe(t *testing.T) {
	svc := NewService(&config.StripeConfig{}, &fakeQuotaStore{}, zap.NewNop())
	r := newCheckoutRouter(svc)

	w := postCheckout(r, `{"userId": "u1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIGURATION_ERROR")
}
