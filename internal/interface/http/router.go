package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openrx/admatch/internal/domain/auth"
	"github.com/openrx/admatch/internal/infra/config"
	"github.com/openrx/admatch/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	metrics.Register(prometheus.DefaultRegisterer)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		metricsMiddleware(),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/ads/match", handler.MatchAd)
		api.POST("/ads/impressions", handler.RecordImpression)
		api.POST("/ads/clicks", handler.RecordClick)
		api.POST("/chat", handler.Chat)
		api.POST("/chat/stream", handler.ChatStream)
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/refresh", handler.Refresh)

		authed := api.Group("")
		authed.Use(authMiddleware(authSvc))
		{
			authed.GET("/categories", handler.ListCategories)
			authed.POST("/categories", handler.CreateBid)
			authed.PUT("/categories/:categoryId/bids/:campaignId", handler.UpdateBid)
			authed.GET("/campaigns", handler.ListCampaigns)
			authed.GET("/stats/campaigns/:id", handler.CampaignStats)
			authed.GET("/stats/company", handler.CompanyStats)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
