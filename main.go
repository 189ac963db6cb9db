package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"straphub-service/clients"
	"straphub-service/common/logger"
	"straphub-service/common/middleware"
	"straphub-service/config"
	"straphub-service/controllers"
	"straphub-service/database"
	"straphub-service/events"
	"straphub-service/kafka"
	"straphub-service/models"
	aws_pkg "straphub-service/pkg/aws"
	"straphub-service/routes"
	"straphub-service/services"
)

func main() {
	// Load environment configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS is optional outside of the dynamodb store and sns sink
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var shipper io.Writer
	if awsErr == nil {
		if w, err := aws_pkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.ServiceName); err != nil {
			log.Printf("cloudwatch logs disabled: %v", err)
		} else if w != nil {
			shipper = w
		}
	}

	zapLogger, err := logger.New(cfg.Env, shipper)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.ServiceName))

	if awsErr != nil && (cfg.CartStore == "dynamodb" || cfg.EventSink == "sns" || cfg.EventSink == "sqs") {
		zapLogger.Fatal("AWS config required", zap.Error(awsErr))
	}

	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		zapLogger.Fatal("invalid FREE_SHIPPING_THRESHOLD", zap.String("value", cfg.FreeShippingThreshold), zap.Error(err))
	}
	freeShipping := models.NewMoney(threshold, cfg.Currency)

	var metrics aws_pkg.MetricsRecorder = aws_pkg.NoopMetrics{}
	if awsErr == nil {
		metrics = aws_pkg.NewMetricsClient(awsCfg)
	}

	// Redis backs the catalog cache and checkout idempotency keys, and the
	// cart store unless dynamodb is selected
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.CartStore == "redis" {
			zapLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		zapLogger.Warn("redis unavailable, running without catalog cache", zap.Error(err))
	}

	var store services.SnapshotStore
	switch cfg.CartStore {
	case "dynamodb":
		store = database.NewDynamoCartRepository(dynamodb.NewFromConfig(awsCfg), cfg.CartTable, cfg.CartTTL)
	default:
		store = database.NewCartRepository(redisClient, cfg.CartTTL)
	}

	var (
		productCache *database.ProductCache
		keys         controllers.CheckoutKeyStore
	)
	if redisClient != nil {
		productCache = database.NewProductCache(redisClient, cfg.CatalogCacheTTL)
		keys = database.NewIdempotencyStore(redisClient, 15*time.Minute)
	}

	gateway := clients.NewStorefrontClient(clients.StorefrontConfig{
		Endpoint: cfg.StorefrontEndpoint(),
		Token:    cfg.StorefrontToken,
		Timeout:  cfg.GatewayTimeout,
	}, zapLogger.Named("storefront"))

	publisher, closePublisher := newEventPublisher(cfg, awsCfg)
	defer closePublisher()

	var cacher services.ProductCacher
	if productCache != nil {
		cacher = productCache
	}
	catalogSvc := services.NewCatalogService(gateway, cacher, metrics, zapLogger.Named("catalog"), freeShipping)
	cartSvc := services.NewCartService(store, gateway, publisher, metrics, zapLogger.Named("cart"), services.CartServiceConfig{
		Options: services.CartOptions{
			FreeShippingThreshold: freeShipping,
			CheckoutChannel:       cfg.CheckoutChannel,
		},
		IdleTTL: cfg.SessionIdleTTL,
	})
	go cartSvc.RunJanitor(ctx)

	if productCache != nil {
		invalidator := events.NewCatalogInvalidator(productCache, zapLogger.Named("catalog-events"))
		if cfg.CatalogTopic != "" {
			consumer := kafka.NewConsumer(cfg.KafkaBrokerList(), cfg.CatalogTopic, cfg.KafkaGroupID, invalidator.Handle, zapLogger.Named("kafka"))
			go func() {
				if err := consumer.Run(ctx); err != nil {
					zapLogger.Error("catalog consumer exited", zap.Error(err))
				}
			}()
		}
		if cfg.CatalogQueueURL != "" && awsErr == nil {
			queue := aws_pkg.NewSQSQueue(awsCfg, cfg.CatalogQueueURL, zapLogger.Named("sqs"))
			go func() { _ = queue.Poll(ctx, invalidator.Handle) }()
		}
	}

	checkoutLimiter := middleware.NewRateLimiter(rate.Every(6*time.Second), 5, 10*time.Minute)
	defer checkoutLimiter.Stop()

	// Initialize Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.UseRawPath = true // variant ids are GIDs with escaped slashes
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MetricsMiddleware(metrics, cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.SessionHeader, controllers.IdempotencyHeader},
		ExposeHeaders:    []string{middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Register routes
	routes.RegisterHealthRoutes(router, cfg.ServiceName)
	routes.RegisterProductRoutes(router, controllers.NewProductController(catalogSvc))
	routes.RegisterCartRoutes(router,
		controllers.NewCartController(cartSvc, catalogSvc, keys, cfg.HandoffDelay, zapLogger.Named("http")),
		routes.CartRouteOptions{
			Session:         middleware.SessionOptions{MaxAge: cfg.CartTTL, Secure: cfg.CookieSecure},
			CheckoutLimiter: checkoutLimiter,
		})

	// Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("StrapHub service is running",
			zap.String("port", cfg.Port),
			zap.String("cart_store", cfg.CartStore),
			zap.String("event_sink", cfg.EventSink))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	zapLogger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	zapLogger.Info("server shutdown complete")
}

// newEventPublisher builds the checkout event sink selected by EVENT_SINK.
// The returned func releases it.
func newEventPublisher(cfg config.Config, awsCfg sdkaws.Config) (services.EventPublisher, func()) {
	switch cfg.EventSink {
	case "kafka":
		p := kafka.NewProducer(cfg.KafkaBrokerList(), cfg.KafkaTopic)
		return p, func() { _ = p.Close() }
	case "sns":
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.CheckoutSNSTopicARN), func() {}
	case "sqs":
		return events.NewSQSPublisher(aws_pkg.NewSQSQueue(awsCfg, cfg.CheckoutQueueURL, nil)), func() {}
	default:
		return nil, func() {}
	}
}
