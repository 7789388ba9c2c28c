package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage хранит документы live_data и историю пульса в SQLite
type Storage struct {
	db *sql.DB
}

// connPragmas применяются к единственному соединению пула.
// WAL даёт читателям не ждать писателя, busy_timeout сглаживает блокировки файла.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

// New открывает базу по пути dbPath и накатывает миграции.
// ":memory:" даёт базу в памяти (для тестов).
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ревизии назначаются внутри транзакций, один писатель
	// исключает SQLITE_BUSY. Для :memory: одно соединение это ещё и одна база.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &Storage{db: db}, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range connPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// migrate накатывает встроенные миграции через goose.Provider
// (без глобального состояния goose)
func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// SchemaVersion возвращает номер последней применённой миграции
func (s *Storage) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := newProvider(s.db)
	if err != nil {
		return 0, err
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Close закрывает соединение с базой
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping проверяет соединение (используется /api/v1/health)
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
