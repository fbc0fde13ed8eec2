package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	auctionapp "github.com/bazargo/backend/internal/application/auction"
	cancellationapp "github.com/bazargo/backend/internal/application/cancellation"
	paymentapp "github.com/bazargo/backend/internal/application/payment"
	shippingapp "github.com/bazargo/backend/internal/application/shipping"
	"github.com/bazargo/backend/internal/domain/shared"
	"github.com/bazargo/backend/internal/infrastructure/cache"
	"github.com/bazargo/backend/internal/infrastructure/config"
	"github.com/bazargo/backend/internal/infrastructure/logger"
	mercadopago "github.com/bazargo/backend/internal/infrastructure/payment"
	"github.com/bazargo/backend/internal/infrastructure/persistence"
	"github.com/bazargo/backend/internal/infrastructure/scheduler"
	superfrete "github.com/bazargo/backend/internal/infrastructure/shipping"
	"github.com/bazargo/backend/internal/interfaces/http/handler"
	"github.com/bazargo/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	orders := persistence.NewGormOrderRepository(db.DB)
	carts := persistence.NewGormCartCheckoutRepository(db.DB)
	listings := persistence.NewGormListingRepository(db.DB)
	profiles := persistence.NewGormProfileRepository(db.DB)
	paymentEvents := persistence.NewGormPaymentEventRepository(db.DB)
	orderEvents := persistence.NewGormOrderEventRepository(db.DB)
	notifier := persistence.NewGormNotificationSink(db.DB, log)

	// Webhook delivery dedupe store. Redis when configured; otherwise the
	// in-process store, which is enough for a single instance because the
	// storage guards carry correctness either way.
	var deliveries shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		deliveries = store
	} else {
		log.Warn("redis disabled, using in-memory webhook dedupe store")
		deliveries = cache.NewInMemoryIdempotencyStore()
	}
	defer deliveries.Close()

	// Provider adapters
	mpAdapter, err := mercadopago.NewMercadoPagoAdapter(&mercadopago.MercadoPagoConfig{
		BaseURL:     cfg.MercadoPago.BaseURL,
		AccessToken: cfg.MercadoPago.AccessToken,
		Timeout:     cfg.MercadoPago.Timeout,
	})
	if err != nil {
		log.Fatal("failed to build mercadopago adapter", zap.Error(err))
	}
	sfAdapter, err := superfrete.NewSuperFreteAdapter(&superfrete.SuperFreteConfig{
		BaseURL:                    cfg.SuperFrete.BaseURL,
		Token:                      cfg.SuperFrete.Token,
		Timeout:                    cfg.SuperFrete.Timeout,
		DocumentRequiredServiceIDs: cfg.SuperFrete.DocumentRequiredServiceIDs,
	})
	if err != nil {
		log.Fatal("failed to build superfrete adapter", zap.Error(err))
	}

	// Application services
	feePercent := decimal.NewFromFloat(cfg.Marketplace.FeePercent)
	day := 24 * time.Hour

	auctions := auctionapp.NewAuctionService(listings, listings, profiles, notifier,
		feePercent, time.Duration(cfg.Marketplace.AuctionPaymentWindowDays)*day,
		cfg.Scheduler.AuctionCloseBatch, log)

	labels := shippingapp.NewLabelService(orders, listings, profiles, orderEvents,
		sfAdapter, notifier, shippingapp.LabelConfig{
			DefaultServiceID:    cfg.SuperFrete.DefaultServiceID,
			BuyerApprovalWindow: time.Duration(cfg.Marketplace.BuyerApprovalDays) * day,
		}, log)

	checkout := paymentapp.NewCheckoutService(orders, carts, listings, mpAdapter,
		paymentapp.CheckoutConfig{
			BaseURL:    cfg.App.BaseURL,
			FeePercent: feePercent,
		}, log)

	reconciler := paymentapp.NewReconcilerService(orders, carts, listings,
		paymentEvents, orderEvents, mpAdapter, deliveries, labels, notifier, profiles,
		paymentapp.ReconcilerConfig{
			SellerPostWindow: time.Duration(cfg.Marketplace.SellerPostDays) * day,
			DeliveryTTL:      48 * time.Hour,
		}, log)

	cancellations := cancellationapp.NewCancellationService(orders, orderEvents, profiles, notifier, log)

	// Periodic auction close. Listing reads run the same sweep lazily; the
	// trigger covers quiet periods.
	trigger := scheduler.NewAuctionCloseTrigger(scheduler.AuctionCloseTriggerConfig{
		Enabled:  cfg.Scheduler.Enabled,
		Interval: cfg.Scheduler.AuctionCloseInterval,
	}, auctions, log)
	if err := trigger.Start(context.Background()); err != nil {
		log.Fatal("failed to start auction close trigger", zap.Error(err))
	}

	engine := router.Setup(cfg, router.Handlers{
		System:   handler.NewSystemHandler(db, log),
		Listing:  handler.NewListingHandler(listings, auctions, log),
		Checkout: handler.NewCheckoutHandler(checkout, reconciler, log),
		Webhook:  handler.NewWebhookHandler(reconciler, log),
		Order:    handler.NewOrderHandler(orders, labels, cancellations, cfg.Marketplace.PayoutHoldDays, log),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Warn("auction close trigger stop timed out", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}
