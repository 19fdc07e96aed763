package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type PgCarelineRepository struct {
	conn *sql.DB
}

func NewPgCarelineRepository(dsn string) (*PgCarelineRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgCarelineRepository{conn: db}, nil
}

// Migrate applies any pending schema migrations from dir.
func (db *PgCarelineRepository) Migrate(dir string) error {
	driver, err := postgres.WithInstance(db.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

func (db *PgCarelineRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgCarelineRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
