package spin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(newTestService(repo), zap.NewNop())
	handler.RegisterRoutes(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Check_MissingUserID(t *testing.T) {
	r := newTestRouter(newFakeRepo())

	w := doJSON(t, r, "/api/spins/check", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Use_UnknownUser(t *testing.T) {
	r := newTestRouter(newFakeRepo())

	w := doJSON(t, r, "/api/spins/use", SpinRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Full free-tier lifecycle: first check creates the record with three spins,
// three uses count down to zero, the fourth is denied.
func TestHandler_SpinLifecycle(t *testing.T) {
	r := newTestRouter(newFakeRepo())

	w := doJSON(t, r, "/api/spins/check", SpinRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	var check CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.True(t, check.CanSpin)
	assert.Equal(t, 3, check.SpinsRemaining)

	for _, want := range []int{2, 1, 0} {
		w = doJSON(t, r, "/api/spins/use", SpinRequest{UserID: "u1"})
		require.Equal(t, http.StatusOK, w.Code)

		var use UseResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &use))
		assert.True(t, use.Success)
		assert.Equal(t, want, use.SpinsRemaining)
	}

	w = doJSON(t, r, "/api/spins/use", SpinRequest{UserID: "u1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "No spins remaining")

	w = doJSON(t, r, "/api/spins/check", SpinRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.False(t, check.CanSpin)
}

func TestHandler_Use_PremiumUnlimited(t *testing.T) {
	repo := newFakeRepo()
	repo.records["vip"] = &UserRecord{UserID: "vip", SpinsRemaining: 0, IsPremium: true}
	r := newTestRouter(repo)

	for i := 0; i < 5; i++ {
		w := doJSON(t, r, "/api/spins/use", SpinRequest{UserID: "vip"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, "/api/spins/check", SpinRequest{UserID: "vip"})
	require.Equal(t, http.StatusOK, w.Code)

	var check CheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.True(t, check.CanSpin)
}
