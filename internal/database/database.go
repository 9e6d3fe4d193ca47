package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Connect opens a pool and makes sure the server answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies every pending migration found under migrations/ in fsys.
func Migrate(url string, fsys fs.FS) (migrator *migrate.Migrate, err error) {
	source, err := iofs.New(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("unable to create migrations iofs: %w", err)
	}
	migrator, err = migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return migrator, nil
}

// ConnectAndMigrate migrates the database at url with the embedded
// migrations and returns a pool connected to it.
func ConnectAndMigrate(ctx context.Context, url string) (*pgxpool.Pool, *migrate.Migrate, error) {
	migrator, err := Migrate(url, Migrations)
	if err != nil {
		return nil, nil, err
	}
	pool, err := Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return pool, migrator, nil
}
