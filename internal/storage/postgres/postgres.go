// Package postgres opens a PostgreSQL database for the storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mmynk/zapsplit/internal/storage/sqlstore"
)

// New connects to the database at url and returns a migrated store.
func New(ctx context.Context, url string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := sqlstore.New(db, sqlstore.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
