package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts exactly one raw token
type fakeVerifier struct {
	good string
	sub  string
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == f.good {
		return &fakeToken{data: map[string]interface{}{"sub": f.sub, "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func serve(t *testing.T, header string, verifiers ...Verifier) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", AuthMiddleware(verifiers...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(UserIDKey)})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serve(t, "", &fakeVerifier{good: "goodtoken", sub: "user1"})
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	rw := serve(t, "BadHeader", &fakeVerifier{good: "goodtoken", sub: "user1"})
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serve(t, "Bearer goodtoken", &fakeVerifier{good: "goodtoken", sub: "user1"})
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["uid"])
}

func TestAuthMiddleware_FallsThroughVerifiers(t *testing.T) {
	first := &fakeVerifier{good: "first-party", sub: "local"}
	second := &fakeVerifier{good: "federated", sub: "remote"}

	rw := serve(t, "Bearer federated", nil, first, second)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), "remote")

	rw = serve(t, "Bearer unknown", first, second)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_NoVerifiers(t *testing.T) {
	rw := serve(t, "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	g := gin.New()
	g.Use(APIKeyMiddleware("k-1"))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Api-Key", "k-1")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
}
