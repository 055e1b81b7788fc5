// Package main applies the gearset schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/cory-johannsen/jobswitch/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "path to migration files directory")
	direction := flag.String("direction", "up", "migration direction: up, down, or version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	force := flag.Int("force", -1, "mark the schema as this version without running migrations")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsDir, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	if *force >= 0 {
		if err := m.Force(*force); err != nil {
			log.Fatalf("forcing version %d: %v", *force, err)
		}
		report(m, "forced", start)
		return
	}

	switch *direction {
	case "up":
		err = run(m.Up, m.Steps, *steps)
	case "down":
		err = run(m.Down, m.Steps, -*steps)
	case "version":
		report(m, "current", start)
		return
	default:
		log.Fatalf("invalid direction %q: must be up, down, or version", *direction)
	}

	switch {
	case errors.Is(err, migrate.ErrNoChange):
		report(m, "no changes", start)
	case err != nil:
		log.Fatalf("migration failed: %v", err)
	default:
		report(m, "migrated "+*direction, start)
	}
}

// run applies all migrations, or n steps when n is nonzero.
func run(all func() error, stepFn func(int) error, n int) error {
	if n != 0 {
		return stepFn(n)
	}
	return all()
}

func report(m *migrate.Migrate, what string, start time.Time) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintf(os.Stdout, "%s: no migrations applied [%s]\n", what, time.Since(start))
		return
	}
	fmt.Fprintf(os.Stdout, "%s: version=%d dirty=%v [%s]\n", what, version, dirty, time.Since(start))
}
