package review

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ratelimit "wordshift/internal/ratelimit"
	store "wordshift/internal/store"
)

func newTestRouter(t *testing.T, adminKey string) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &Handler{
		Store: db,
		Limiter: ratelimit.New(ratelimit.Config{
			Window:       10 * time.Second,
			MaxRequests:  1000,
			BaseCooldown: 5 * time.Second,
			MaxCooldown:  2 * time.Minute,
			TrackTTL:     15 * time.Minute,
		}),
		AdminKey: adminKey,
	}
	router := gin.New()
	router.Any("/api/word-review", h.Handle)
	return router, h
}

func doJSON(router *gin.Engine, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetEmptyStore(t *testing.T) {
	router, _ := newTestRouter(t, "")
	w := doJSON(router, http.MethodGet, "/api/word-review", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Empty(t, payload.Approved)
	assert.Empty(t, payload.Rejected)
}

func TestWriteRequiresConfiguredKey(t *testing.T) {
	router, _ := newTestRouter(t, "")
	w := doJSON(router, http.MethodPost, "/api/word-review", Payload{Approved: []string{"APPLE"}}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteRejectsWrongKey(t *testing.T) {
	router, _ := newTestRouter(t, "right-key")
	w := doJSON(router, http.MethodPost, "/api/word-review", Payload{Approved: []string{"APPLE"}},
		map[string]string{"X-Wordshift-Key": "wrong-key"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWriteAndReadBack(t *testing.T) {
	router, _ := newTestRouter(t, "right-key")
	w := doJSON(router, http.MethodPost, "/api/word-review",
		Payload{Approved: []string{" apple ", "grape", "bcdfg"}, Rejected: []string{"grape"}},
		map[string]string{"Authorization": "Bearer right-key"})
	require.Equal(t, http.StatusOK, w.Code)

	var saved Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	// BCDFG fails the readability filter; a rejection overrides an approval.
	assert.Equal(t, []string{"APPLE"}, saved.Approved)
	assert.Equal(t, []string{"GRAPE"}, saved.Rejected)

	w = doJSON(router, http.MethodGet, "/api/word-review", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loaded Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, saved, loaded)
}

func TestAuthCheck(t *testing.T) {
	router, _ := newTestRouter(t, "")
	w := doJSON(router, http.MethodGet, "/api/word-review?authCheck=1", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	router, _ = newTestRouter(t, "right-key")
	w = doJSON(router, http.MethodGet, "/api/word-review?authCheck=1", nil,
		map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/word-review?authCheck=1", nil,
		map[string]string{"X-Admin-Key": "right-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionsAlwaysOK(t *testing.T) {
	router, _ := newTestRouter(t, "")
	w := doJSON(router, http.MethodOptions, "/api/word-review", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnsupportedMethod(t *testing.T) {
	router, _ := newTestRouter(t, "")
	w := doJSON(router, http.MethodDelete, "/api/word-review", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRateLimitedResponseShape(t *testing.T) {
	router, h := newTestRouter(t, "")
	h.Limiter = ratelimit.New(ratelimit.Config{
		Window:       10 * time.Second,
		MaxRequests:  5,
		BaseCooldown: 5 * time.Second,
		MaxCooldown:  2 * time.Minute,
		TrackTTL:     15 * time.Minute,
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = doJSON(router, http.MethodGet, "/api/word-review", nil, nil)
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.NotZero(t, body["retryAfterMs"])
}

func TestNormalizePayloadRejectedWins(t *testing.T) {
	out := NormalizePayload(&Payload{
		Approved: []string{"apple", "apple", "zebra"},
		Rejected: []string{"ZEBRA"},
	})
	assert.Equal(t, []string{"APPLE"}, out.Approved)
	assert.Equal(t, []string{"ZEBRA"}, out.Rejected)
}

func TestFingerprintStable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c1.Request.Header.Set("User-Agent", "agent-a")

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.Header.Set("User-Agent", "agent-a")

	assert.Equal(t, Fingerprint(c1), Fingerprint(c2))

	c2.Request.Header.Set("User-Agent", "agent-b")
	assert.NotEqual(t, Fingerprint(c1), Fingerprint(c2))
}
