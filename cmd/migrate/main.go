// Command migrate applies the profiles schema to a self-hosted record store.
// It reads the same configuration as the client.
package main

import (
	"context"
	"log"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/config"
	"github.com/dmitrijs2005/wellbeing/internal/client/records"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.LoadConfig()

	db, err := records.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := records.Ping(ctx, db); err != nil {
		log.Fatalf("connect: %v", err)
	}

	if err := records.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Println("profiles schema is up to date")
}
