package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/config"
)

const (
	pingAttempts = 5
	pingTimeout  = 5 * time.Second
	pingBackoff  = 500 * time.Millisecond
)

// ReadSnapshot makes every statement of a read-only transaction observe the same snapshot
var ReadSnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// Querier is the subset of *sql.DB and *sql.Tx used by repositories
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// DB is the PostgreSQL connection pool
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// New opens the pool described by cfg and waits until PostgreSQL accepts connections
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.MaxLifetime)

	db := &DB{
		DB:  pool,
		log: log.With().Str("component", "database").Logger(),
	}
	if err := db.waitReady(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	db.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Connected to PostgreSQL")
	return db, nil
}

// waitReady pings the server, doubling the pause between failed attempts
func (db *DB) waitReady(ctx context.Context) error {
	backoff := pingBackoff
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == pingAttempts {
			break
		}

		db.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", backoff).Msg("PostgreSQL not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", pingAttempts, err)
}

// WithTx runs fn inside a transaction started with opts (nil means read
// committed, read-write). It commits when fn returns nil and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthCheck reports an error when the pool does not answer or a failed
// migration left the schema dirty
func (db *DB) HealthCheck(ctx context.Context) error {
	var dirty bool
	err := db.QueryRowContext(ctx, `SELECT dirty FROM schema_migrations LIMIT 1`).Scan(&dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errors.New("schema has no applied migrations")
	case err != nil:
		return fmt.Errorf("database check failed: %w", err)
	case dirty:
		return errors.New("schema is dirty")
	}
	return nil
}

// RunMigrations applies every pending migration under path
func (db *DB) RunMigrations(path string) error {
	m, err := db.Migrator(path)
	if err != nil {
		return err
	}
	return m.Up()
}

// Migrator applies the SQL files of one migrations directory to the pool
type Migrator struct {
	m   *migrate.Migrate
	log zerolog.Logger
}

// Migrator binds the migrations under path to this pool
func (db *DB) Migrator(path string) (*Migrator, error) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations from %s: %w", path, err)
	}
	return &Migrator{m: m, log: db.log.With().Str("migrations", path).Logger()}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.run("up", m.m.Up)
}

// Down rolls back the most recent migration
func (m *Migrator) Down() error {
	return m.run("down", func() error { return m.m.Steps(-1) })
}

// Goto migrates up or down to version
func (m *Migrator) Goto(version uint) error {
	return m.run(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// Version returns the applied schema version, zero when none is applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) run(step string, apply func() error) error {
	if err := apply(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", step, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info().Str("step", step).Uint("version", version).Bool("dirty", dirty).Msg("Schema migrated")
	return nil
}
