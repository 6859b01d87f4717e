package server

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/obiefule/estateflow/config"
	"github.com/obiefule/estateflow/internal/events"
	"github.com/obiefule/estateflow/internal/gateway"
	"github.com/obiefule/estateflow/internal/handlers"
	"github.com/obiefule/estateflow/internal/helpers"
	"github.com/obiefule/estateflow/internal/inventory"
	"github.com/obiefule/estateflow/internal/metrics"
	"github.com/obiefule/estateflow/internal/middleware"
	"github.com/obiefule/estateflow/internal/purchase"
	"github.com/obiefule/estateflow/internal/repositories"
)

const metricsCacheTTL = 30 * time.Second

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	paystackCfg, err := config.LoadPaystackConfig()
	if err != nil {
		return fmt.Errorf("failed to load paystack config: %v", err)
	}

	publisher := buildPublisher(cfg)

	r := gin.Default()

	setupRoutes(r, db, cfg, paystackCfg, publisher)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

// buildPublisher falls back to a no-op publisher when Kafka is not
// configured, so local setups run without a broker.
func buildPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop()
	}
	producer, err := events.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		log.Printf("kafka unavailable, events disabled: %v", err)
		return events.Nop()
	}
	return producer
}

func setupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, paystackCfg *config.PaystackConfig, publisher events.Publisher) {
	store := inventory.NewStore(db)
	estates := repositories.NewEstateRepository(db)
	purchases := repositories.NewPurchaseRepository(db)
	properties := repositories.NewPropertyRepository(db)
	directory := repositories.NewUserDirectory(db)

	paystack := gateway.NewPaystack(paystackCfg.SecretKey, paystackCfg.BaseURL)

	orchestrator := purchase.NewOrchestrator(store, estates, purchases, directory, paystack, publisher, paystackCfg.CallbackURL)
	finalizer := purchase.NewFinalizer(store, estates, purchases, properties, paystack, publisher)

	var reporter metrics.Reporter = metrics.NewReporter(properties)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		reporter = metrics.NewCachedReporter(reporter, redisClient, metricsCacheTTL)
	}

	signer := helpers.NewCertificateSigner(os.Getenv("CERTIFICATE_SECRET"))

	authHandler := handlers.NewAuthHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	estateHandler := handlers.NewEstateHandler(estates, store)
	purchaseHandler := handlers.NewPurchaseHandler(orchestrator)
	paymentHandler := handlers.NewPaymentHandler(finalizer, paystackCfg.SecretKey)
	propertyHandler := handlers.NewPropertyHandler(reporter, properties, signer)
	adminHandler := handlers.NewAdminHandler(finalizer)

	r.Use(middleware.TraceIDMiddleware())

	public := r.Group("/v1")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)

		estatePublic := public.Group("/estates")
		{
			estatePublic.GET("", estateHandler.ListEstates)
			estatePublic.GET("/:id", estateHandler.GetEstate)
		}

		public.POST("/estates/plots/preview-purchase", purchaseHandler.PreviewPurchase)

		payments := public.Group("/payments")
		{
			// GET is the browser redirect, POST the signed webhook.
			payments.GET("/callback", paymentHandler.Callback)
			payments.POST("/callback", paymentHandler.Webhook)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", profileHandler.GetProfile)
		protected.POST("/estates/plots/purchase", purchaseHandler.Purchase)
		protected.GET("/purchases", purchaseHandler.ListPurchases)

		myProperties := protected.Group("/myproperties")
		{
			myProperties.GET("/customer-metrics", propertyHandler.CustomerMetrics)
			myProperties.GET("/customer-properties", propertyHandler.CustomerProperties)
			myProperties.GET("/:id/certificate", propertyHandler.Certificate)
		}
	}

	admin := r.Group("/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	{
		admin.POST("/estates", estateHandler.CreateEstate)
		admin.POST("/allocate-property", adminHandler.AllocateProperty)
	}
}
