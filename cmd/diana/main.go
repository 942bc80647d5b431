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

	"github.com/fortuna/diana/internal/api/rest"
	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/collect"
	"github.com/fortuna/diana/internal/config"
	"github.com/fortuna/diana/internal/ingest/sportradar"
	"github.com/fortuna/diana/internal/publisher"
	"github.com/fortuna/diana/internal/reconcile"
	"github.com/fortuna/diana/internal/scheduler"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

const (
	serviceName    = "diana"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - WNBA Data Collection Service", serviceName, serviceVersion)

	// Load configuration from environment
	cfg := config.Load()

	if cfg.APIKey == "" {
		log.Fatalf("SPORTRADAR_API_KEY is required")
	}

	// Initialize the output archive
	arch, err := archive.New(cfg.DataRoot)
	if err != nil {
		log.Fatalf("Failed to create archive at %s: %v", cfg.DataRoot, err)
	}
	log.Printf("✓ Archive ready at %s", arch.Root())

	// Open the manifest database inside the archive root
	db, err := store.NewDatabase(arch.ManifestPath())
	if err != nil {
		log.Fatalf("Failed to open manifest database: %v", err)
	}
	defer db.Close()

	log.Println("✓ Connected to manifest database")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Reconcile the manifest against the Players directory
	profiles := repository.NewProfileRepository(db)
	reconciler := reconcile.NewEngine(profiles, arch)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	_, err = reconciler.Repair(startupCtx)
	startupCancel()
	if err != nil {
		log.Fatalf("Failed to reconcile manifest: %v", err)
	}
	log.Println("✓ Manifest reconciled")

	// Initialize the Sportradar client and collection service
	client := sportradar.NewWithInterval(cfg.APIBase, cfg.APIKey, cfg.RequestInterval)
	collectService := collect.NewService(db, arch, client, cfg.CallBudget, nil)

	// Optional Redis publisher with retry logic
	if cfg.RedisURL != "" {
		var redisPublisher *publisher.RedisPublisher
		maxRetries := 30
		retryDelay := 2 * time.Second

		log.Println("Connecting to Redis...")
		for i := 0; i < maxRetries; i++ {
			redisPublisher, err = publisher.NewRedisPublisher(cfg.RedisURL)
			if err == nil {
				break
			}

			if i < maxRetries-1 {
				log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
				time.Sleep(retryDelay)
			} else {
				log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
			}
		}
		defer redisPublisher.Close()

		collectService.SetPublisher(redisPublisher)
		log.Println("✓ Redis publisher initialized")
	} else {
		log.Println("⊘ REDIS_URL not set, run events will not be published")
	}

	// Start the collection worker
	if err := collectService.Start(); err != nil {
		log.Fatalf("Failed to start collection service: %v", err)
	}
	log.Println("✓ Collection service started")

	// Initialize scheduler with configuration
	schedulerConfig := &scheduler.Config{
		DailyCollectionHour:   cfg.DailyCollectionHour,
		CurrentSeason:         cfg.CurrentSeason,
		EnableDailyCollection: cfg.EnableDailyCollection,
	}
	sched := scheduler.NewOrchestrator(collectService, schedulerConfig)

	// Start scheduler in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)
	log.Println("✓ Scheduler started")

	// Initialize REST API server
	restServer := rest.NewServer(cfg.RESTPort, db, collectService, profiles, reconciler, sched)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.RESTPort)
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ REST API server listening on :%s", cfg.RESTPort)
	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.RESTPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down Diana gracefully...")

	// Graceful shutdown
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := collectService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Collection service shutdown error: %v", err)
	}

	log.Println("Diana stopped")
}
