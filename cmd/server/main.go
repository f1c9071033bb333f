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

	"ledger-service/config"
	"ledger-service/internal/api"
	"ledger-service/internal/broker"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/service"
	"ledger-service/internal/store"
	"ledger-service/internal/util"
	"ledger-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting ledger service")

	tp, err := util.InitTracer("ledger-service", cfg.Observ.JaegerEndpoint)
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

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	undoWindow := time.Duration(cfg.Business.UndoWindowMillis) * time.Millisecond
	deleteCoordinator := service.NewDeleteCoordinator(db, eventPublisher, undoWindow)

	stockService := service.NewStockService(db, redisClient, eventPublisher)
	customerService := service.NewCustomerService(db, eventPublisher, cfg.Business.DefaultCountryCode)
	paymentService := service.NewPaymentService(db, eventPublisher)
	productService := service.NewProductService(db, stockService, deleteCoordinator, eventPublisher)
	salesService := service.NewSalesService(db, stockService, customerService, deleteCoordinator, eventPublisher)
	expenseService := service.NewExpenseService(db, deleteCoordinator, eventPublisher)
	reportService := service.NewReportService(db)
	snapshotService := service.NewSnapshotService(db, redisClient)
	backupService := service.NewBackupService(db, eventPublisher)

	if cfg.Business.DefaultAccountID != "" {
		ctx := context.Background()
		scope := store.Scope{TenantID: cfg.Business.DefaultAccountID}
		if err := stockService.SyncStockToRedis(ctx, scope); err != nil {
			log.Printf("Failed to sync stock to Redis: %v", err)
		}
	}

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger, cfg.Kafka.ConsumerGroup)
	snapshotWorker := worker.NewSnapshotWorker(consumer, snapshotService, stockService)
	snapshotWorker.Start(context.Background())

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		productService, salesService, expenseService, customerService,
		paymentService, reportService, snapshotService, backupService,
		cfg.Business.DefaultAccountID)
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

	snapshotWorker.Stop()

	log.Println("Server exited")
}
