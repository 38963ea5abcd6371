// Package persistence is the GORM-backed store for the fleet's KV state
// and universe cache, grounded on the teacher's adapters/persistence
// package (GORM + sqlite/postgres drivers) but collapsed from its dozen
// per-aggregate repositories down to the two the single-agent core
// actually needs: a generic KV store and a universe cache.
package persistence

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrel-systems/fleetcore/internal/infrastructure/config"
)

// Open connects to the database named by cfg and runs AutoMigrate for
// every model this package owns.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "fleetcore.db"
		}
		dialector = sqlite.Open(path)
	case "postgres":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
			)
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&KVEntry{},
		&SystemRecord{},
		&WaypointRecord{},
		&MarketRecord{},
		&ShipyardRecord{},
		&ConstructionRecord{},
		&TransactionRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return db, nil
}
