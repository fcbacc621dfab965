package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	shareddata "github.com/stake-plus/gemtracker/src/data"
	"github.com/stake-plus/gemtracker/src/shared/tracking"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := shareddata.Connect()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	if err := shareddata.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	// name=value arguments are stored as active settings before the report
	for _, arg := range os.Args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			log.Fatalf("Expected name=value, got %q", arg)
		}
		if err := shareddata.SetSetting(ctx, db, strings.TrimSpace(name), value); err != nil {
			log.Fatalf("Error saving setting %s: %v", name, err)
		}
		log.Printf("Setting %s saved", name)
	}

	watchlist := tracking.NewWatchlistManager(db)
	proposals := tracking.NewProposalManager(db)

	scopes, err := watchlist.Scopes(ctx)
	if err != nil {
		log.Fatalf("Error listing scopes: %v", err)
	}
	log.Printf("Scopes with a watch-list: %d", len(scopes))
	for _, scope := range scopes {
		entries, err := watchlist.Get(ctx, scope)
		if err != nil {
			log.Fatalf("Error reading scope %s: %v", scope, err)
		}
		log.Printf("  %s: %d/%d", scope, len(entries), tracking.MaxTrackedEntries)
	}

	open, err := proposals.ListOpen(ctx)
	if err != nil {
		log.Fatalf("Error listing proposals: %v", err)
	}
	log.Printf("Open proposals: %d", len(open))
	for _, p := range open {
		log.Printf("  %s %s %s in %s (age %s)", p.ID, p.Kind, p.Target.Label(), p.ScopeID, time.Since(p.CreatedAt).Round(time.Second))
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		rdb, err := shareddata.ConnectRedis(ctx, url)
		if err != nil {
			log.Fatalf("Redis: %v", err)
		}
		defer rdb.Close()
		log.Printf("Redis: ok")
	}
}
