package database

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigratorConfig controls how the migrator reaches the database.
type MigratorConfig struct {
	DatabaseURL   string
	RetryAttempts int
	RetryDelay    time.Duration
}

// Migrator applies the SQL migrations embedded in the binary.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator opens a migrate instance over files, retrying the database
// connection while it comes up.
func NewMigrator(files fs.FS, cfg MigratorConfig, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	var (
		m   *migrate.Migrate
		err error
	)
	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		source, srcErr := iofs.New(files, ".")
		if srcErr != nil {
			return nil, fmt.Errorf("open migration source: %w", srcErr)
		}

		m, err = migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL)
		if err == nil {
			break
		}
		_ = source.Close()
		logger.Warn("migration database not reachable",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.RetryAttempts),
			zap.Error(err),
		)
		if attempt < cfg.RetryAttempts {
			time.Sleep(cfg.RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{sugar: logger.Sugar()}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (s *Migrator) Up() error {
	if err := s.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	s.logger.Info("migrations applied")
	return nil
}

// Down rolls back every migration.
func (s *Migrator) Down() error {
	if err := s.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	s.logger.Info("migrations rolled back")
	return nil
}

// Steps moves n migrations up (positive) or down (negative).
func (s *Migrator) Steps(n int) error {
	if err := s.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run %d migration steps: %w", n, err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty.
func (s *Migrator) Version() (uint, bool, error) {
	v, dirty, err := s.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force sets the schema version without running migrations.
func (s *Migrator) Force(version int) error {
	return s.m.Force(version)
}

// Close releases the source and database handles.
func (s *Migrator) Close() error {
	srcErr, dbErr := s.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	sugar *zap.SugaredLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }
