package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stake-plus/gemtracker/src/actions"
	shareddata "github.com/stake-plus/gemtracker/src/data"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env: %v", err)
	}

	// Use a single DB connection for all modules
	db, err := shareddata.Connect()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := shareddata.Migrate(db); err != nil {
		log.Fatalf("db: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := actions.StartAll(ctx, db)
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cancel()
	manager.Stop(context.Background())
}
