package database

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Migrator applies the embedded schema migrations against the pool.
type Migrator struct {
	migrationsFS   fs.FS
	migrationsPath string
	pool           *pgxpool.Pool
	logger         *zap.Logger
}

// NewMigrator creates a Migrator over an embedded migrations filesystem.
func NewMigrator(migrationsFS fs.FS, migrationsPath string, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		migrationsFS:   migrationsFS,
		migrationsPath: migrationsPath,
		pool:           pool,
		logger:         logger.Named("Migrator"),
	}
}

// Up applies all pending migrations. Already-current is not an error.
func (m *Migrator) Up() error {
	migrator, err := m.create()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.Info("Database migrations applied")
	return nil
}

// Version returns the current schema version and whether it is dirty.
func (m *Migrator) Version() (uint, bool, error) {
	migrator, err := m.create()
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) create() (*migrate.Migrate, error) {
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:       "schema_migrations",
		MigrationsTableQuoted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.migrationsFS, m.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	migrator.LockTimeout = 30 * time.Second
	return migrator, nil
}
