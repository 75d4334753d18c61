package server

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/repository"
)

// runMigrations creates any missing tables and indexes.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	log.Println("Schema up to date")
	return nil
}
