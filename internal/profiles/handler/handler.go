package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peckin/peckin/backend/go-services/internal/profiles"
	"github.com/peckin/peckin/backend/go-services/internal/profiles/service"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"github.com/peckin/peckin/backend/go-services/pkg/metrics"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
)

// RegisterRoutes mounts the collection endpoints on rg. The group must
// already run an auth middleware that sets middleware.UserIDKey.
func RegisterRoutes(rg *gin.RouterGroup, svc *service.Service) {
	rg.GET("/collections/:collection/:id", func(c *gin.Context) {
		rec, err := svc.Get(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("collection"), c.Param("id"))
		if err != nil {
			fail(c, "get", err)
			return
		}
		if rec == nil {
			metrics.StoreOps.WithLabelValues("get", "not-found").Inc()
			c.JSON(http.StatusNotFound, gin.H{"code": "not-found", "error": "document does not exist"})
			return
		}
		metrics.StoreOps.WithLabelValues("get", "ok").Inc()
		c.JSON(http.StatusOK, view(rec))
	})

	rg.PUT("/collections/:collection/:id", func(c *gin.Context) {
		var data map[string]interface{}
		if err := c.ShouldBindJSON(&data); err != nil {
			metrics.StoreOps.WithLabelValues("set", "invalid-argument").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
			return
		}
		id := c.Param("id")
		if err := svc.Set(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("collection"), id, data); err != nil {
			fail(c, "set", err)
			return
		}
		metrics.StoreOps.WithLabelValues("set", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	rg.POST("/collections/:collection", func(c *gin.Context) {
		var data map[string]interface{}
		if err := c.ShouldBindJSON(&data); err != nil {
			metrics.StoreOps.WithLabelValues("create", "invalid-argument").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
			return
		}
		id, err := svc.Create(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("collection"), data)
		if err != nil {
			fail(c, "create", err)
			return
		}
		metrics.StoreOps.WithLabelValues("create", "ok").Inc()
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})
}

func view(rec *profiles.Record) gin.H {
	return gin.H{
		"id":        rec.ID,
		"data":      rec.Data,
		"createdAt": rec.CreatedAt,
		"updatedAt": rec.UpdatedAt,
	}
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, service.ErrUnknownCollection):
		metrics.StoreOps.WithLabelValues(op, "permission-denied").Inc()
		c.JSON(http.StatusForbidden, gin.H{"code": "permission-denied", "error": err.Error()})
	case errors.Is(err, service.ErrInvalidData):
		metrics.StoreOps.WithLabelValues(op, "invalid-argument").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid-argument", "error": err.Error()})
	default:
		logger.Errorf("profiles: %s %s/%s: %v", op, c.Param("collection"), c.Param("id"), err)
		metrics.StoreOps.WithLabelValues(op, "unavailable").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "error": "document store unavailable"})
	}
}
