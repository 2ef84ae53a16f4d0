package main

import (
	"context"
	"errors"
	"fmt"

	"avfall_backend/internal/addresses/repository"
	"avfall_backend/internal/addresses/service"
	"avfall_backend/platform/config"
	"avfall_backend/platform/db"
)

var errNoStore = errors.New("set --sqlite or --database-url (or DATABASE_URL)")

type databaseURL string

func (u databaseURL) GetDatabaseURL() string { return string(u) }

// openStore opens and migrates the selected store. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config, flags storeFlags) (service.Store, func(), error) {
	table := flags.table
	if table == "" {
		table = cfg.GetAddressTable()
	}

	if flags.sqlitePath != "" {
		conn, err := db.OpenSQLite(ctx, flags.sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.RunSQLiteMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return repository.NewSQLite(conn, table), func() { _ = conn.Close() }, nil
	}

	url := flags.databaseURL
	if url == "" {
		url = cfg.GetDatabaseURL()
	}
	if url == "" {
		return nil, nil, errNoStore
	}

	pool, err := db.NewPool(ctx, databaseURL(url))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgres(pool, table), pool.Close, nil
}
