package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
)

// MaxAvatarBytes caps a single avatar upload.
const MaxAvatarBytes = 2 << 20

// PresignTTL is how long a returned avatar URL stays valid.
const PresignTTL = 15 * time.Minute

// ObjectStore is the subset of MinIOStorage the avatar routes need.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

func avatarKey(uid string) string { return "avatars/" + uid }

// RegisterAvatarRoutes mounts PUT/GET /avatars/:id. Callers may only touch
// their own avatar.
func RegisterAvatarRoutes(rg gin.IRouter, store ObjectStore) {
	rg.PUT("/avatars/:id", func(c *gin.Context) {
		uid := c.GetString(middleware.UserIDKey)
		if uid == "" || c.Param("id") != uid {
			c.JSON(http.StatusForbidden, gin.H{"code": "permission-denied", "error": "cannot write another user's avatar"})
			return
		}
		ct := c.ContentType()
		if !strings.HasPrefix(ct, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": "avatar must be an image"})
			return
		}
		// object storage needs the size up front
		switch n := c.Request.ContentLength; {
		case n < 0:
			c.JSON(http.StatusLengthRequired, gin.H{"code": "invalid-argument", "error": "Content-Length is required"})
			return
		case n == 0:
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": "avatar is empty"})
			return
		case n > MaxAvatarBytes:
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"code": "invalid-argument", "error": "avatar must be at most 2 MiB"})
			return
		}
		body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxAvatarBytes)
		if err := store.Upload(c.Request.Context(), avatarKey(uid), body, c.Request.ContentLength, ct); err != nil {
			logger.Errorf("avatar upload for %s failed: %v", uid, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "error": "object storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": uid})
	})

	rg.GET("/avatars/:id", func(c *gin.Context) {
		uid := c.GetString(middleware.UserIDKey)
		if uid == "" || c.Param("id") != uid {
			c.JSON(http.StatusForbidden, gin.H{"code": "permission-denied", "error": "cannot read another user's avatar"})
			return
		}
		ok, err := store.Exists(c.Request.Context(), avatarKey(uid))
		if err != nil {
			logger.Errorf("avatar stat for %s failed: %v", uid, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "error": "object storage unavailable"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"code": "not-found", "error": "no avatar uploaded"})
			return
		}
		u, err := store.PresignedURL(c.Request.Context(), avatarKey(uid), PresignTTL)
		if err != nil {
			logger.Errorf("avatar presign for %s failed: %v", uid, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "error": "object storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": u, "expiresIn": int(PresignTTL.Seconds())})
	})
}
