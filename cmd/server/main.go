package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundry-service/config"
	"laundry-service/internal/api"
	"laundry-service/internal/broker"
	"laundry-service/internal/pricing"
	"laundry-service/internal/redisclient"
	"laundry-service/internal/service"
	"laundry-service/internal/store"
	"laundry-service/internal/util"
	"laundry-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting laundry service")

	tp, err := util.InitTracer("laundry-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	catalog := service.NewCatalogClient(
		db,
		redisClient,
		time.Duration(cfg.Business.PriceCacheTTLSeconds)*time.Second,
		decimal.NewFromFloat(cfg.Business.PremiumMaxMultiplier),
	)
	resolver := pricing.NewResolver(catalog)
	calculator := pricing.NewCalculator(resolver)

	orderService := service.NewOrderService(db, catalog, calculator, eventPublisher)
	affiliateService := service.NewAffiliateService(db)
	commissionService := service.NewCommissionService(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	commissionConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	commissionWorker := worker.NewCommissionWorker(commissionConsumer, commissionService)
	go func() {
		if err := commissionWorker.Start(workerCtx); err != nil {
			log.Printf("Commission worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	auth := api.NewAuthMiddleware(redisClient, cfg.Auth.JWTSecret)
	handler := api.NewHandler(orderService, affiliateService, catalog, auth)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	commissionWorker.Stop()

	log.Println("Server exited")
}
