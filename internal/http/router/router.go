package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/proposal-engine/internal/config"
	"github.com/ignatzorin/proposal-engine/internal/http/middleware"
	"github.com/ignatzorin/proposal-engine/internal/interface/http/handler"
	"github.com/ignatzorin/proposal-engine/internal/service"
)

// Handlers собирает все хендлеры для SetupRouter. WS может быть nil.
type Handlers struct {
	Proposal  *handler.ProposalHandler
	Version   *handler.VersionHandler
	Signature *handler.SignatureHandler
	Tracking  *handler.TrackingHandler
	Client    *handler.ClientHandler
	Catalog   *handler.CatalogHandler
	Health    *handler.HealthHandler
	WS        *handler.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.HandleMethodNotAllowed = true
	r.NoRoute(middleware.NoRoute)
	r.NoMethod(middleware.NoMethod)

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичные маршруты получателя предложения. У каждого свой счётчик:
	// поток событий трекинга не должен мешать подписи.
	r.GET("/p/:token", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Version.PublicView)

	api := r.Group("/api")
	{
		api.POST("/proposals/:id/versions/:versionId/sign",
			middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod),
			middleware.UUIDValidator("id", "versionId"), h.Signature.Sign)
		api.POST("/track/event", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Tracking.TrackEvent)
		// Пиксель отдаётся всегда, лимит только отключает запись открытия.
		api.GET("/track/open", middleware.SoftRateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Tracking.TrackOpen)
	}

	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	// Маршруты владельца
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/proposals", h.Proposal.CreateProposal)
		protected.GET("/proposals", h.Proposal.ListProposals)
		protected.GET("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.GetProposal)
		protected.PATCH("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.UpdateProposal)
		protected.DELETE("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.DeleteProposal)
		protected.GET("/proposals/:id/events", middleware.UUIDValidator("id"), h.Proposal.ListEvents)
		protected.GET("/proposals/:id/signatures", middleware.UUIDValidator("id"), h.Proposal.ListSignatures)

		protected.POST("/proposals/:id/versions", middleware.UUIDValidator("id"), h.Version.PublishVersion)
		protected.GET("/proposals/:id/versions", middleware.UUIDValidator("id"), h.Version.ListVersions)

		protected.POST("/clients", h.Client.CreateClient)
		protected.GET("/clients", h.Client.ListClients)
		protected.GET("/clients/:id", middleware.UUIDValidator("id"), h.Client.GetClient)
		protected.PATCH("/clients/:id", middleware.UUIDValidator("id"), h.Client.UpdateClient)

		protected.POST("/catalog/items", h.Catalog.CreateItem)
		protected.GET("/catalog/items", h.Catalog.ListItems)
		protected.GET("/catalog/items/:id", middleware.UUIDValidator("id"), h.Catalog.GetItem)
		protected.PATCH("/catalog/items/:id", middleware.UUIDValidator("id"), h.Catalog.UpdateItem)
	}

	return r
}
