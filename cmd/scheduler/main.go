package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/credisol/lending-engine/internal/config"
	"github.com/credisol/lending-engine/internal/repository"
	"github.com/credisol/lending-engine/internal/service"
)

func main() {
	log.Println("Starting credit scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Initialize service
	applicationRepo := repository.NewApplicationRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	creditService := service.NewCreditService(applicationRepo, loanRepo, paymentRepo, redisClient, cfg)

	// Initialize cron scheduler in the business timezone
	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Failed to load scheduler timezone: %v", err)
	}
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Nightly sweep: re-derive every open loan's status so loans that went
	// overdue since the last payment are reflected without waiting for a read.
	_, err = c.AddFunc(cfg.Scheduler.RefreshSpec, func() {
		log.Println("Running loan status refresh job...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		changed, err := creditService.RefreshLoanStatuses(ctx)
		if err != nil {
			log.Printf("Loan status refresh failed: %v", err)
			return
		}
		log.Printf("Loan status refresh done, %d loans changed", changed)
	})
	if err != nil {
		log.Fatalf("Error scheduling loan status refresh job: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}
