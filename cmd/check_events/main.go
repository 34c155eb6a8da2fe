package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
)

func main() {
	spannerDB := flag.String("database", getEnvOrDefault("SPANNER_DATABASE", "projects/test-project/instances/dev-instance/databases/dynprice-db"), "Spanner database")
	eventType := flag.String("type", "", "Only show this event type, e.g. product.repriced")
	limit := flag.Int("limit", 10, "Number of events to show")
	showPayload := flag.Bool("payload", false, "Print event payloads")
	flag.Parse()

	ctx := context.Background()
	client, err := spanner.NewClient(ctx, *spannerDB)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	events, err := repo.NewOutboxRepo(client).Recent(ctx, *eventType, *limit)
	if err != nil {
		log.Fatalf("Failed to list events: %v", err)
	}

	if len(events) == 0 {
		fmt.Println("No events found!")
		return
	}

	fmt.Println("Events in outbox_events table:")
	for i, e := range events {
		fmt.Printf("%d. %s %s - %s (aggregate: %s, status: %s)\n",
			i+1, e.CreatedAt.Format(time.RFC3339), e.EventType, e.EventID, e.AggregateID, e.Status)
		if *showPayload && e.Payload.Valid {
			fmt.Printf("   %s\n", e.Payload.String())
		}
	}
	fmt.Printf("\nTotal: %d events\n", len(events))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
