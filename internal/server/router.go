package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/blob"
	"github.com/abduss/taskhub/internal/config"
	"github.com/abduss/taskhub/internal/logger"
	"github.com/abduss/taskhub/internal/metrics"
	"github.com/abduss/taskhub/internal/presigned"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config            config.Config
	DB                Pinger
	Blob              blob.Store
	AttachmentService *attachment.Service
	PresignedService  *presigned.Service
	Logger            *zap.Logger
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.InitMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AttachmentService != nil {
		attachment.RegisterRoutes(api, deps.AttachmentService)
	}
	if deps.PresignedService != nil {
		presigned.NewHandler(deps.PresignedService).RegisterRoutes(api)
	}

	return router
}
