package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	pkgstorage "github.com/goliatone/go-mdpages/pkg/storage"
)

var (
	// ErrUnsupportedDriver reports a driver other than sqlite3 or postgres.
	ErrUnsupportedDriver = errors.New("storage: unsupported driver")
	// ErrDSNRequired reports an empty connection string.
	ErrDSNRequired = errors.New("storage: dsn required")
)

// OpenDB opens and pings the database described by cfg.
func OpenDB(ctx context.Context, cfg pkgstorage.Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", pkgstorage.DriverSQLite, "sqlite":
		sqlDB, err := sql.Open(pkgstorage.DriverSQLite, sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if strings.Contains(dsn, ":memory:") {
			// Every pooled connection would otherwise see its own database.
			sqlDB.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case pkgstorage.DriverPostgres, "postgresql":
		connector, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sql.OpenDB(connector), pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// sqliteDSN turns on foreign key enforcement unless the DSN sets it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
