package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/credisol/lending-engine/internal/config"
	"github.com/credisol/lending-engine/internal/handler"
	"github.com/credisol/lending-engine/internal/repository"
	"github.com/credisol/lending-engine/internal/service"
	"github.com/credisol/lending-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	applicationRepo := repository.NewApplicationRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize service and handlers
	creditService := service.NewCreditService(applicationRepo, loanRepo, paymentRepo, redisClient, cfg)
	creditHandler := handler.NewCreditHandler(creditService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(creditHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(creditHandler *handler.CreditHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health checks
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/applications", creditHandler.SubmitApplication).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/review", creditHandler.StartReview).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/approve", creditHandler.ApproveApplication).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/reject", creditHandler.RejectApplication).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/cancel", creditHandler.CancelApplication).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/fund", creditHandler.FundLoan).Methods("POST")
	api.HandleFunc("/loans/{loanNumber}/schedule", creditHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanNumber}/summary", creditHandler.GetSummary).Methods("GET")
	api.HandleFunc("/loans/{loanNumber}/payments", creditHandler.RecordPayment).Methods("POST")

	return router
}
