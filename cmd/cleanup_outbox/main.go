package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
)

// Config for the outbox cleanup job.
type Config struct {
	SpannerDB              string
	CompletedRetentionDays int
	FailedRetentionDays    int
	DryRun                 bool
}

func main() {
	config := Config{}
	flag.StringVar(&config.SpannerDB, "database", "", "Spanner database (required, format: projects/PROJECT/instances/INSTANCE/databases/DATABASE)")
	flag.IntVar(&config.CompletedRetentionDays, "completed-retention", 30, "Retention days for completed events")
	flag.IntVar(&config.FailedRetentionDays, "failed-retention", 90, "Retention days for failed events")
	flag.BoolVar(&config.DryRun, "dry-run", false, "Count what would be deleted without deleting")
	flag.Parse()

	if config.SpannerDB == "" {
		log.Fatal("Error: -database flag is required")
	}
	if config.CompletedRetentionDays < 0 || config.FailedRetentionDays < 0 {
		log.Fatal("Error: retention days must not be negative")
	}

	if err := cleanupOutbox(context.Background(), config); err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
}

func cleanupOutbox(ctx context.Context, config Config) error {
	client, err := spanner.NewClient(ctx, config.SpannerDB)
	if err != nil {
		return fmt.Errorf("failed to create Spanner client: %w", err)
	}
	defer client.Close()

	keep := repo.Retention{
		Completed: time.Duration(config.CompletedRetentionDays) * 24 * time.Hour,
		Failed:    time.Duration(config.FailedRetentionDays) * 24 * time.Hour,
	}
	now := time.Now().UTC()

	log.Printf("Starting outbox cleanup...")
	log.Printf("  Completed events cutoff: %s", now.Add(-keep.Completed).Format(time.RFC3339))
	log.Printf("  Failed events cutoff: %s", now.Add(-keep.Failed).Format(time.RFC3339))
	log.Printf("  Dry run: %v", config.DryRun)

	n, err := repo.NewOutboxRepo(client).Purge(ctx, now, keep, config.DryRun)
	if err != nil {
		return fmt.Errorf("purged %d events before failing: %w", n, err)
	}

	if config.DryRun {
		log.Printf("DRY RUN: would delete %d events", n)
		return nil
	}
	log.Printf("Deleted %d events", n)
	return nil
}
