// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded Postgres migrations through the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = conn.Close()
	}()
	return migrate(ctx, conn, "postgres", "migrations/postgres")
}

// RunSQLiteMigrations applies the embedded SQLite schema.
func RunSQLiteMigrations(ctx context.Context, conn *sql.DB) error {
	return migrate(ctx, conn, "sqlite3", "migrations/sqlite")
}

func migrate(ctx context.Context, conn *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", dialect, err)
	}
	if err := goose.UpContext(ctx, conn, dir); err != nil {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}
	return nil
}
