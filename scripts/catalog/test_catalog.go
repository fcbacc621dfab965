package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/stake-plus/gemtracker/src/shared/catalog"
)

func main() {
	url := catalog.DefaultURL
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	entries, err := catalog.NewHTTPSource(url).FetchCatalog(ctx)
	if err != nil {
		log.Fatalf("Error fetching leaderboard: %v", err)
	}

	log.Printf("Leaderboard %s: %d bots (fingerprint %016x)", url, len(entries), catalog.Fingerprint(entries))
	for i, e := range entries {
		log.Printf("  %3d. %s", i+1, e.Label())
	}
}
