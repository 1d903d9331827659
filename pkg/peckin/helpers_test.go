package peckin

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/internal/accounts"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	profileservice "github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/internal/server"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAPIKey = "test-api-key"

// newBackend starts an in-memory backend and returns a client config
// pointing at it.
func newBackend(t *testing.T) (*httptest.Server, *Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Project.APIKey = testAPIKey
	cfg.JWT.Secret = "client-test-secret-32-bytes-xxxxx"
	a := accounts.NewService(accounts.NewMemoryRepository())
	a.HashCost = bcrypt.MinCost

	ts := httptest.NewServer(server.NewRouter(server.Deps{
		Config:   cfg,
		Accounts: a,
		Sessions: sessions.NewService(sessions.NewMemoryRepository()),
		Profiles: profileservice.NewMemoryService(UsersCollection, "scans"),
	}))
	t.Cleanup(ts.Close)

	return ts, &Config{
		APIKey:            testAPIKey,
		AuthDomain:        ts.URL,
		ProjectID:         "peckin-test",
		StorageBucket:     "peckin-test-bucket",
		MessagingSenderID: "1",
		AppID:             "1:1:test",
	}
}

func signedIn(t *testing.T, p *HTTPProvider, email string) *UserRef {
	t.Helper()
	u, err := p.CreateAccount(context.Background(), email, "secret1", "")
	require.NoError(t, err)
	return u
}
