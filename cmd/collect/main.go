package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/collect"
	"github.com/fortuna/diana/internal/ingest/sportradar"
	"github.com/fortuna/diana/internal/store"
)

const (
	appName    = "diana-collect"
	appVersion = "1.0.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var (
		root     = flag.String("root", getEnv("DATA_ROOT", "wnba_betting_data"), "Output root directory")
		year     = flag.Int("year", getEnvInt("CURRENT_SEASON", time.Now().Year()), "Season year to collect")
		apiKey   = flag.String("key", os.Getenv("SPORTRADAR_API_KEY"), "Sportradar API key")
		baseURL  = flag.String("base-url", getEnv("SPORTRADAR_API_BASE", sportradar.DefaultBaseURL), "Sportradar API base URL")
		interval = flag.Duration("interval", getEnvDuration("REQUEST_INTERVAL", sportradar.DefaultRequestInterval), "Spacing between API calls")
		budget   = flag.Int("budget", getEnvInt("API_CALL_BUDGET", 0), "API call budget to report against (0 disables)")
		dryRun   = flag.Bool("dry-run", false, "Fetch the schedule and report without writing")
	)

	flag.Parse()

	if *apiKey == "" {
		log.Fatalf("Specify --key or set SPORTRADAR_API_KEY")
	}

	arch, err := archive.New(*root)
	if err != nil {
		log.Fatalf("create archive: %v", err)
	}

	db, err := store.NewDatabase(arch.ManifestPath())
	if err != nil {
		log.Fatalf("open manifest database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	client := sportradar.NewWithInterval(*baseURL, *apiKey, *interval)
	runner := collect.NewRunnerWithBudget(db, arch, client, *budget)

	spec := collect.RunSpec{Year: *year, DryRun: *dryRun}

	summary, err := runner.Run(context.Background(), spec, &consoleReporter{})
	if err != nil {
		log.Fatalf("collection failed: %v", err)
	}

	printReport(summary)
}

func printReport(summary *collect.RunSummary) {
	log.Println("=== Collection Report ===")
	log.Printf("Season:           %d", summary.Year)
	log.Printf("Games collected:  %d of %d (%d skipped)", summary.GamesCollected, summary.GamesTotal, summary.GamesSkipped)
	log.Printf("Stat rows:        %d", summary.StatRows)
	log.Printf("Profiles fetched: %d (%d deferred to next run)", summary.ProfilesFetched, summary.ProfilesSkipped)
	log.Printf("Warnings:         %d", summary.Warnings)
	log.Printf("API calls:        %d", summary.APICalls)
	if remaining, ok := summary.BudgetRemaining(); ok {
		log.Printf("Budget remaining: %d of %d", remaining, summary.CallBudget)
	}
	log.Printf("Elapsed:          %.1f minutes", summary.Elapsed.Minutes())
}

// consoleReporter prints run progress; events the runner already logs
// stay quiet here.
type consoleReporter struct{}

func (c *consoleReporter) OnRunStart(spec collect.RunSpec) {
	log.Printf("Starting collection for season %d (dry_run=%v)", spec.Year, spec.DryRun)
}

func (c *consoleReporter) OnGameStart(gameID string, index, total int) {
	log.Printf("[%d/%d] game %s", index+1, total, gameID)
}

func (c *consoleReporter) OnGameProcessed(gameID string, statRows int) {}

func (c *consoleReporter) OnGameSkipped(gameID string) {}

func (c *consoleReporter) OnWarning(message string) {}

func (c *consoleReporter) OnProfileFetched(playerID string) {
	log.Printf("Profile %s collected", playerID)
}

func (c *consoleReporter) OnProfileSkipped(playerID string) {}

func (c *consoleReporter) OnProgress(message string, current, total int) {}

func (c *consoleReporter) OnRunComplete(summary collect.RunSummary) {
	log.Println("Run complete")
}

func (c *consoleReporter) OnRunError(err error) {
	log.Printf("Run error: %v", err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
