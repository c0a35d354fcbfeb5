// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db // import "github.com/econbot/econbot/internal/db"

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	// SQL drivers required for runtime.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// PoolOptions sizes the connection pool. Zero values select defaults.
type PoolOptions struct {
	MinSize         int
	MaxSize         int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

const (
	defaultMaxOpenConns    = 10
	defaultMinIdleConns    = 1
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
)

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxSize <= 0 {
		o.MaxSize = defaultMaxOpenConns
	}
	if o.MinSize <= 0 {
		o.MinSize = defaultMinIdleConns
	}
	if o.MinSize > o.MaxSize {
		o.MinSize = o.MaxSize
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if o.ConnMaxIdleTime <= 0 {
		o.ConnMaxIdleTime = defaultConnMaxIdleTime
	}
	return o
}

// driverFor maps a database type to its registered database/sql driver.
// The pgx stdlib registers driver name "pgx".
func driverFor(dbType string) (string, error) {
	switch dbType {
	case "postgres":
		return "pgx", nil
	case "sqlite", "mysql":
		return dbType, nil
	default:
		return "", fmt.Errorf("unsupported database type: '%s'", dbType)
	}
}

// isMemorySQLite reports whether dsn names an in-memory sqlite database.
// Each connection to such a database sees its own schema unless it is
// shared, so the pool is pinned to a single connection.
func isMemorySQLite(dbType, dsn string) bool {
	return dbType == "sqlite" && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory"))
}

// NewStoreFromDSN opens a sql.DB for the given DSN, runs migrations, and
// returns a store backed by a long-lived *bun.DB.
func NewStoreFromDSN(ctx context.Context, dbType, dsn string, opts PoolOptions) (*BunStore, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	opts = opts.withDefaults()
	maxOpen, maxIdle := opts.MaxSize, opts.MinSize
	if isMemorySQLite(dbType, dsn) {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	dbLogf("db: opened %s driver in %s (conn max open=%d, idle=%d, maxLifetime=%s)", driverName, time.Since(start), maxOpen, maxIdle, opts.ConnMaxLifetime)

	bunDB := createBunDB(sqlDB, dbType)
	migStart := time.Now()
	if err := RunMigrations(ctx, bunDB, dbType); err != nil {
		_ = bunDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	dbLogf("db: migrations for %s completed in %s", dbType, time.Since(migStart))

	return NewBunStore(bunDB, dbType), nil
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "sqlite":
		return bun.NewDB(sqlDB, sqlitedialect.New())
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		// Fallback to SQLite dialect as a safe default; callers should validate dbType earlier.
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}
