package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/pkg/metrics"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newRouter(svc *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	rg := g.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	RegisterRoutes(rg, svc)
	return g
}

func do(g *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-User", user)
	g.ServeHTTP(w, req)
	return w
}

func TestProfileHandler_GetPut(t *testing.T) {
	g := newRouter(service.NewMemoryService())
	notFound := testutil.ToFloat64(metrics.StoreOps.WithLabelValues("get", "not-found"))

	w := do(g, http.MethodGet, "/api/v1/collections/users/u1", "u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"not-found"`)
	require.Equal(t, notFound+1, testutil.ToFloat64(metrics.StoreOps.WithLabelValues("get", "not-found")))

	w = do(g, http.MethodPut, "/api/v1/collections/users/u1", "u1", `{"first_name":"Ann","major":["CS"],"minor":[]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/api/v1/collections/users/u1", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		ID   string                 `json:"id"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "u1", got.ID)
	require.Equal(t, "Ann", got.Data["first_name"])
	require.Equal(t, []interface{}{"CS"}, got.Data["major"])
}

func TestProfileHandler_PermissionDenied(t *testing.T) {
	g := newRouter(service.NewMemoryService())

	w := do(g, http.MethodGet, "/api/v1/collections/users/u1", "u2", "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), `"permission-denied"`)

	w = do(g, http.MethodPut, "/api/v1/collections/users/u1", "u2", `{"first_name":"Eve"}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(g, http.MethodGet, "/api/v1/collections/secrets/u1", "u1", "")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProfileHandler_CreateAndBadBody(t *testing.T) {
	g := newRouter(service.NewMemoryService("users", "scans"))

	w := do(g, http.MethodPost, "/api/v1/collections/scans", "u1", `{"code":"abc"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	require.NotEmpty(t, cr["id"])

	w = do(g, http.MethodGet, "/api/v1/collections/scans/"+cr["id"], "u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodPut, "/api/v1/collections/users/u1", "u1", `[1,2]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"invalid-argument"`)
}
