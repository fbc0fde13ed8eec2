package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/infrastructure/config"
	"github.com/bazargo/backend/internal/infrastructure/logger"
	"github.com/bazargo/backend/internal/interfaces/http/handler"
	"github.com/bazargo/backend/internal/interfaces/http/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	System   *handler.SystemHandler
	Listing  *handler.ListingHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Order    *handler.OrderHandler
}

// Setup builds the gin engine with the full middleware chain and all routes.
// Webhook and probe routes stay outside the auth middleware: the payment
// provider and the orchestrator don't carry user identity.
func Setup(cfg *config.Config, handlers Handlers, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsCfg),
	)

	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	v1 := engine.Group("/api/v1")
	v1.Use(middleware.UserID())

	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/mercadopago", handlers.Webhook.MercadoPago)
		webhooks.GET("/mercadopago", handlers.Webhook.MercadoPago)
	}

	listings := v1.Group("/listings")
	{
		listings.GET("", handlers.Listing.List)
		listings.GET("/:id", handlers.Listing.Get)
		listings.GET("/:id/bids", handlers.Listing.ListBids)

		authed := listings.Group("", middleware.RequireUser())
		{
			authed.POST("", handlers.Listing.Create)
			authed.POST("/:id/bids", handlers.Listing.PlaceBid)
			authed.POST("/:id/close", handlers.Listing.Close)
		}
	}

	checkout := v1.Group("/checkout")
	{
		// the provider redirects the buyer here without our auth header
		checkout.GET("/return", handlers.Checkout.Return)

		authed := checkout.Group("", middleware.RequireUser())
		{
			authed.POST("/buy-now", handlers.Checkout.BuyNow)
			authed.POST("/cart", handlers.Checkout.CartCheckout)
		}
	}

	orders := v1.Group("/orders", middleware.RequireUser())
	{
		orders.GET("", handlers.Order.List)
		orders.GET("/:id", handlers.Order.Get)
		orders.POST("/:id/preference", handlers.Checkout.CreatePreference)
		orders.POST("/:id/cancel-request", handlers.Order.RequestCancellation)
		orders.POST("/:id/cancel-unpaid", handlers.Order.CancelUnpaid)
		orders.POST("/:id/label/release", handlers.Order.RetryLabelRelease)
	}

	return engine
}
