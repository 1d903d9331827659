package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/internal/accounts"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	profileservice "github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testRouter(checks map[string]func() bool) *gin.Engine {
	return testRouterWith(&config.Config{}, checks)
}

func testRouterWith(cfg *config.Config, checks map[string]func() bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg.Project.APIKey = "test-api-key"
	cfg.JWT.Secret = "server-test-secret-32-bytes-xxxxx"
	a := accounts.NewService(accounts.NewMemoryRepository())
	a.HashCost = bcrypt.MinCost
	return NewRouter(Deps{
		Config:   cfg,
		Accounts: a,
		Sessions: sessions.NewService(sessions.NewMemoryRepository()),
		Profiles: profileservice.NewMemoryService(),
		Checks:   checks,
	})
}

func call(r *gin.Engine, method, path, body, apiKey, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	up := true
	r := testRouter(map[string]func() bool{"store": func() bool { return up }})

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "", "", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/ready", "", "", "").Code)

	up = false
	w := call(r, http.MethodGet, "/ready", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not_ready")
}

func TestAPIKeyRequired(t *testing.T) {
	r := testRouter(nil)
	w := call(r, http.MethodPost, "/auth/signup", `{"email":"a@b.co","password":"secret1"}`, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth/invalid-api-key")
}

func TestSignupThenWriteProfile(t *testing.T) {
	r := testRouter(nil)
	w := call(r, http.MethodPost, "/auth/signup", `{"email":"ann@example.com","password":"secret1"}`, "test-api-key", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var signed struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signed))

	path := "/api/v1/collections/users/" + signed.User.ID
	w = call(r, http.MethodGet, path, "", "test-api-key", signed.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPut, path, `{"first_name":"Ann"}`, "test-api-key", signed.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, path, "", "test-api-key", signed.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"first_name":"Ann"`)

	w = call(r, http.MethodGet, path, "", "test-api-key", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit_PerUserOnAPI(t *testing.T) {
	cfg := &config.Config{}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 3
	r := testRouterWith(cfg, nil)

	from := func(ip, method, path, body, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.RemoteAddr = ip + ":4000"
		req.Header.Set("X-Api-Key", "test-api-key")
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := from("10.0.0.1", http.MethodPost, "/auth/signup", `{"email":"ann@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var signed struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signed))

	// every request comes from a fresh IP; only the per-user bucket drains
	for _, ip := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		assert.Equal(t, http.StatusOK, from(ip, http.MethodGet, "/api/v1/me", "", signed.AccessToken).Code, ip)
	}
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.5", http.MethodGet, "/api/v1/me", "", signed.AccessToken).Code)

	// an unauthenticated caller on a fresh IP is unaffected
	assert.Equal(t, http.StatusOK, from("10.0.0.6", http.MethodGet, "/health", "", "").Code)
}
