// Package postgres implements storage.Store on top of gorm. Units of
// work map to database transactions; vehicle availability checks rely
// on SELECT ... FOR UPDATE row locks.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet-service/internal/config"
	"fleet-service/internal/storage"
)

type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

func New(cfg *config.Config, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	log.Info().Msg("running database migrations")
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	log.Info().Msg("database ready")

	return &Store{db: db}, nil
}

// WithTx runs fn inside a database transaction. The store passed to fn
// shares the transaction handle, so every call in fn joins it.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return storage.ErrDuplicate
	default:
		return err
	}
}
