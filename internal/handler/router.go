package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/middleware"
	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/pkg/logger"
	corsmiddleware "github.com/noah-isme/siak-warlock/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siak-warlock/pkg/middleware/requestid"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health     *HealthHandler
	Snapshots  *SnapshotHandler
	Match      *MatchHandler
	Challenges *ChallengeHandler
}

// NewRouter builds the gin engine with the standard middleware chain.
func NewRouter(cfg RouterConfig, h Handlers, tokens middleware.TokenValidator, observer middleware.RequestObserver, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(observer))
	r.Use(middleware.WithResponseMeta())

	if h.Health != nil {
		r.GET("/health", h.Health.Health)
		r.GET("/ready", h.Health.Ready)
		r.GET("/metrics", h.Health.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if h.Health != nil {
		api.GET("/system/metrics", h.Health.Summary)
	}
	if h.Snapshots != nil {
		api.POST("/snapshots", h.Snapshots.Ingest)
		api.GET("/snapshots/latest", h.Snapshots.Latest)
		api.GET("/changesets/latest", h.Snapshots.LatestChangeset)
	}
	if h.Match != nil {
		api.POST("/match", h.Match.Match)
	}
	if h.Challenges != nil && tokens != nil {
		challenges := api.Group("/challenges", middleware.JWT(tokens), middleware.RequireScope(models.ScopeChallengeReply))
		challenges.GET("/current", h.Challenges.Current)
		challenges.POST("/replies", h.Challenges.Reply)
	}

	return r
}
