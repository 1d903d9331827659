package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/handlers"
	"github.com/peckin/peckin/backend/go-services/internal/accounts"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	profilehandler "github.com/peckin/peckin/backend/go-services/internal/profiles/handler"
	profileservice "github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/peckin/peckin/backend/go-services/internal/storage"
	"github.com/peckin/peckin/backend/go-services/internal/tokens"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the services the router is assembled from. Redis, Blacklist,
// Federated and Avatars are optional.
type Deps struct {
	Config    *config.Config
	Accounts  *accounts.Service
	Sessions  *sessions.Service
	Profiles  *profileservice.Service
	Blacklist *sessions.Blacklist
	Federated middleware.Verifier
	Avatars   storage.ObjectStore
	Redis     *redis.Client
	// Checks are reported by /ready; any false entry makes it 503.
	Checks map[string]func() bool
}

var startTime = time.Now()

// NewRouter builds the gin engine serving the auth, document and avatar
// APIs plus the operational endpoints.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CORS())

	// keyed by client IP: no user is known yet
	if cfg.RateLimit.Enabled {
		r.Use(rateLimiter(cfg, d.Redis))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		for name, check := range d.Checks {
			deps[name] = check()
			ready = ready && deps[name]
		}
		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	keyed := r.Group("/", middleware.APIKeyMiddleware(cfg.Project.APIKey))
	auth := handlers.NewAuthHandler(cfg, d.Accounts, d.Sessions, d.Blacklist, d.Federated)
	auth.Register(keyed)

	api := keyed.Group("/api/v1", middleware.AuthMiddleware(tokens.NewVerifier(cfg, d.Blacklist), d.Federated))
	// keyed by user id, so one account cannot spread its load over many IPs
	if cfg.RateLimit.Enabled {
		api.Use(rateLimiter(cfg, d.Redis))
	}
	auth.RegisterMe(api)
	profilehandler.RegisterRoutes(api, d.Profiles)
	if d.Avatars != nil {
		storage.RegisterAvatarRoutes(api, d.Avatars)
	}
	return r
}

func rateLimiter(cfg *config.Config, rc *redis.Client) gin.HandlerFunc {
	if cfg.RateLimit.UseRedis && rc != nil {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		return middleware.RedisRateLimitMiddleware(rc, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
	}
	return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}
