package main

import (
	"context"
	"database/sql"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/database"
	"github.com/OptimisticPessimist/pscweb3/internal/repository"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// openDB opens the configured database.  The caller closes it.
func openDB() (*sql.DB, database.Dialect, error) {
	return database.Open(config.LoadDB())
}

// openMigrated opens the database and applies the schema.
func openMigrated(ctx context.Context) (*sql.DB, database.Dialect, error) {
	db, d, err := openDB()
	if err != nil {
		return nil, d, err
	}
	if err := database.Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, d, err
	}
	return db, d, nil
}

func newEngine(db *sql.DB, d database.Dialect) (*scheduling.Engine, error) {
	eng, err := config.LoadEngine()
	if err != nil {
		return nil, err
	}
	return scheduling.NewEngine(repository.NewSnapshotRepo(db, d), eng.Options()), nil
}
