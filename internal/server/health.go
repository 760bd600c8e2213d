package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/logger"
)

const readinessTimeout = 5 * time.Second

var errNotConfigured = errors.New("not configured")

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		log := logger.FromContext(c.Request.Context(), deps.Logger)

		if err := ping(ctx, deps.DB); err != nil {
			log.Warn("readiness check failed", zap.String("component", "postgres"), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"component": "postgres",
			})
			return
		}

		if err := ping(ctx, deps.Blob); err != nil {
			log.Warn("readiness check failed",
				zap.String("component", "blob_store"),
				zap.String("blob_backend", deps.Config.Blob.Backend),
				zap.Error(err),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"component": "blob_store",
				"backend":   deps.Config.Blob.Backend,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return errNotConfigured
	}
	return p.Ping(ctx)
}
