package main

import (
	"embed"
	stderrors "errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/lrazine99/purple-dog-sub000/internal/infrastructure/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		action     = flag.String("action", "up", "Migration action: up, down, version")
		steps      = flag.Int("steps", 0, "Number of migrations to run (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to open migration source", "error", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *action {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !stderrors.Is(verr, migrate.ErrNilVersion) {
			slog.Error("failed to read version", "error", verr)
			os.Exit(1)
		}
		slog.Info("migration status", "version", version, "dirty", dirty)
		return
	default:
		slog.Error("unknown action", "action", *action)
		os.Exit(1)
	}

	if err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		slog.Error("migration failed", "action", *action, "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "action", *action)
}
