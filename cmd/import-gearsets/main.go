// Package main loads a YAML gearset table into PostgreSQL, replacing the
// character's stored table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
	"github.com/cory-johannsen/jobswitch/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	source := flag.String("source", "", "path to gearset table YAML")
	character := flag.String("character", "", "character name (defaults to the table's character)")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: import-gearsets -source <file.yaml> [-character <name>] [-config <file>]")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	table, err := state.LoadTable(*source)
	if err != nil {
		log.Fatalf("loading gearsets: %v", err)
	}
	name := *character
	if name == "" {
		name = table.Character
	}
	if name == "" {
		log.Fatalf("%s names no character; pass -character", *source)
	}

	start := time.Now()
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewGearsetRepository(pool.DB())
	if err := repo.ReplaceAll(ctx, name, table.Gearsets); err != nil {
		log.Fatalf("importing gearsets: %v", err)
	}
	fmt.Printf("imported %d gearsets for %q in %s\n", len(table.Gearsets), name, time.Since(start).Round(time.Millisecond))
}
