package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/fortuna/diana/internal/collect"
)

// Orchestrator schedules the daily collection run.
type Orchestrator struct {
	service *collect.Service
	config  *Config

	cancel      context.CancelFunc
	dailyCtx    context.Context
	dailyCancel context.CancelFunc
}

// Config holds scheduler configuration
type Config struct {
	DailyCollectionHour   int  // Default: 6 (6 AM)
	CurrentSeason         int  // e.g., 2021
	EnableDailyCollection bool // Default: true
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailyCollectionHour:   6,
		CurrentSeason:         time.Now().Year(),
		EnableDailyCollection: true,
	}
}

// NewOrchestrator creates a scheduler around the collection service
func NewOrchestrator(service *collect.Service, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		service: service,
		config:  config,
	}
}

// Start begins the scheduled tasks and blocks until ctx is cancelled
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║       Diana Collection Scheduler       ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Daily collection: %v (at %02d:00)", o.config.EnableDailyCollection, o.config.DailyCollectionHour)
	log.Printf("Season: %d", o.config.CurrentSeason)
	log.Println()

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableDailyCollection {
		o.dailyCtx, o.dailyCancel = context.WithCancel(ctx)
		go o.runDailyCollection(o.dailyCtx)
	}

	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

// runDailyCollection enqueues one collection run per day at the
// configured hour
func (o *Orchestrator) runDailyCollection(ctx context.Context) {
	log.Printf("→ Daily collection scheduler started (runs at %02d:00 daily)", o.config.DailyCollectionHour)

	consecutiveErrors := 0

	for {
		// Calculate time until next run
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyCollectionHour, 0, 0, 0, now.Location())

		// If we've passed today's run time, schedule for tomorrow
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		log.Printf("  Next daily collection: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		select {
		case <-ctx.Done():
			log.Println("→ Daily collection scheduler stopped")
			return
		case <-time.After(waitDuration):
			if err := o.enqueueDailyRun(ctx); err != nil {
				consecutiveErrors++
				log.Printf("  ❌ Daily collection enqueue failed (%d in a row): %v", consecutiveErrors, err)
			} else {
				consecutiveErrors = 0
			}
		}
	}
}

// enqueueDailyRun queues the current season for collection
func (o *Orchestrator) enqueueDailyRun(ctx context.Context) error {
	run, err := o.service.Enqueue(ctx, collect.Request{Year: o.config.CurrentSeason})
	if err != nil {
		return err
	}

	log.Printf("  ✓ Queued daily run %d for season %d", run.RunID, o.config.CurrentSeason)
	return nil
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")

	if o.dailyCancel != nil {
		o.dailyCancel()
	}
	if o.cancel != nil {
		o.cancel()
	}

	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"daily_collection_enabled": o.config.EnableDailyCollection,
		"daily_collection_hour":    o.config.DailyCollectionHour,
		"current_season":           o.config.CurrentSeason,
	}
}
