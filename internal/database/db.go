package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Params selects and locates the database.  Driver is "mysql" or
// "sqlite3"; the MySQL fields are ignored for sqlite3 and Path is
// ignored for mysql.
type Params struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string
}

// DSN renders the driver-specific data source name.
func (p Params) DSN() (string, error) {
	switch p.Driver {
	case DriverMySQL:
		auth := p.User
		if p.Pass != "" {
			auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, p.Host, p.Port, p.Name), nil
	case DriverSQLite:
		if p.Path == "" {
			return "", fmt.Errorf("sqlite3: empty path")
		}
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", p.Path), nil
	}
	return "", fmt.Errorf("unsupported DB driver %q", p.Driver)
}

// Open connects to the configured database and verifies the
// connection.  It returns the dialect matching the driver.
func Open(p Params) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(p.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	if p.Driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
			return nil, Dialect{}, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn, err := p.DSN()
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(p.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, err
	}

	// Pool settings
	if p.Driver == DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY under concurrent upserts
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, err
	}
	return db, dialect, nil
}
