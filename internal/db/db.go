// Package db opens the application database and applies the embedded
// migrations. SQLite is the default driver; Postgres is available through
// pgx for deployments that outgrow a single file.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func Init(driver, connection string) (*sqlx.DB, error) {
	// SQLite stores the database as a file; make sure its directory exists.
	// ":memory:" has no directory and is what tests use.
	if driver == "sqlite" && connection != ":memory:" {
		err := os.MkdirAll(filepath.Dir(connection), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	// Small pool: the claim transaction holds a connection only briefly,
	// and SQLite allows a single writer at a time.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	slog.Info("database connected", "driver", driver)
	return db, nil
}
