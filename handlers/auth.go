package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/internal/accounts"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	"github.com/peckin/peckin/backend/go-services/internal/models"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/peckin/peckin/backend/go-services/internal/tokens"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/metrics"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
)

// CredentialsRequest is the body of sign-up and password login.
type CredentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	// IDToken switches login to federated mode: an OIDC ID token is
	// verified and exchanged for first-party tokens.
	IDToken string `json:"idToken"`
}

// LoginResponse is returned by sign-up and login.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
	User         models.UserRef `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	accountsSvc *accounts.Service
	sessionsSvc *sessions.Service
	blacklist   *sessions.Blacklist
	federated   middleware.Verifier
}

// NewAuthHandler wires the auth endpoints. blacklist and federated may be nil.
func NewAuthHandler(cfg *config.Config, a *accounts.Service, s *sessions.Service, bl *sessions.Blacklist, federated middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, accountsSvc: a, sessionsSvc: s, blacklist: bl, federated: federated}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.POST("/signup", h.Signup)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// RegisterMe mounts GET /me on a group that already runs AuthMiddleware.
func (h *AuthHandler) RegisterMe(rg gin.IRouter) {
	rg.GET("/me", h.Me)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
		return
	}
	a, err := h.accountsSvc.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.authFailed(c, "signup", err)
		return
	}
	h.issue(c, "signup", http.StatusCreated, a)
}

// Login signs in with email/password, or with an OIDC ID token when
// idToken is set.
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
		return
	}
	var (
		a   *models.Account
		err error
	)
	if req.IDToken != "" {
		a, err = h.federatedLogin(c.Request.Context(), req.IDToken)
		if err != nil {
			logger.Warnf("federated login rejected: %v", err)
			metrics.AuthAttempts.WithLabelValues("login", "invalid-id-token").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"code": "auth/invalid-credential", "error": "invalid id token"})
			return
		}
	} else {
		a, err = h.accountsSvc.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			h.authFailed(c, "login", err)
			return
		}
	}
	h.issue(c, "login", http.StatusOK, a)
}

func (h *AuthHandler) federatedLogin(ctx context.Context, idToken string) (*models.Account, error) {
	if h.federated == nil {
		return nil, errors.New("federated login not configured")
	}
	tok, err := h.federated.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, err
	}
	a, err := h.accountsSvc.UpsertFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.New("id token has no subject")
	}
	return a, nil
}

func (h *AuthHandler) issue(c *gin.Context, op string, status int, a *models.Account) {
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), a.ID, h.refreshTTL())
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		h.internal(c, op, "failed to create session")
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, a, h.accessTTL())
	if err != nil {
		logger.Errorf("failed to sign access token: %v", err)
		h.internal(c, op, "failed to create access token")
		return
	}
	metrics.AuthAttempts.WithLabelValues(op, "ok").Inc()
	c.JSON(status, LoginResponse{
		AccessToken:  access,
		RefreshToken: rft,
		ExpiresIn:    int(h.accessTTL().Seconds()),
		User:         a.Ref(),
	})
}

// authFailed maps account errors to a status and provider code.
func (h *AuthHandler) authFailed(c *gin.Context, op string, err error) {
	var ae *accounts.Error
	if !errors.As(err, &ae) {
		logger.Errorf("%s failed: %v", op, err)
		h.internal(c, op, "authentication failed")
		return
	}
	status := http.StatusBadRequest
	switch ae.Code {
	case accounts.CodeEmailInUse:
		status = http.StatusConflict
	case accounts.CodeUserNotFound, accounts.CodeWrongPassword:
		status = http.StatusUnauthorized
	}
	logger.Infof("%s rejected: %s", op, ae.Code)
	metrics.AuthAttempts.WithLabelValues(op, ae.Code).Inc()
	c.JSON(status, gin.H{"code": ae.Code, "error": ae.Message})
}

func (h *AuthHandler) internal(c *gin.Context, op, msg string) {
	metrics.AuthAttempts.WithLabelValues(op, "internal").Inc()
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": msg})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		logger.Errorf("refresh validation failed: %v", err)
		h.internal(c, "refresh", "validation failed")
		return
	}
	if sess == nil {
		metrics.AuthAttempts.WithLabelValues("refresh", "invalid-refresh-token").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"code": "auth/invalid-refresh-token", "error": "invalid refresh token"})
		return
	}
	a, err := h.accountsSvc.Get(c.Request.Context(), sess.UserID)
	if err != nil || a == nil {
		logger.Errorf("refresh: account %s lookup failed: %v", sess.UserID, err)
		h.internal(c, "refresh", "user lookup failed")
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, a, h.accessTTL())
	if err != nil {
		h.internal(c, "refresh", "failed to create access token")
		return
	}
	metrics.AuthAttempts.WithLabelValues("refresh", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.accessTTL().Seconds())})
}

// Logout invalidates the refresh token and blacklists the bearer access
// token, if one is presented, for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
		return
	}
	if at, ok := middleware.BearerToken(c); ok {
		if exp, err := tokens.ExpiresAt(at); err == nil {
			if ttl := time.Until(exp); ttl > 0 {
				if err := h.blacklist.Revoke(c.Request.Context(), at, ttl); err != nil {
					logger.Errorf("failed to blacklist access token: %v", err)
					h.internal(c, "logout", "failed to blacklist access token")
					return
				}
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		logger.Errorf("failed to remove session: %v", err)
		h.internal(c, "logout", "failed to remove session")
		return
	}
	metrics.AuthAttempts.WithLabelValues("logout", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the caller's account, or the verified claims for federated
// callers without a local account.
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.UserIDKey)
	a, err := h.accountsSvc.Get(c.Request.Context(), uid)
	if err != nil {
		logger.Errorf("me: account lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "user lookup failed"})
		return
	}
	if a == nil {
		claims, _ := c.Get(middleware.ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"claims": claims})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a.Ref(), "displayName": a.DisplayName})
}
