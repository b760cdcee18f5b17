package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres through the pgx driver and wraps the pool in
// gorm. Slow statements and errors are logged at warn; every statement is
// logged at debug when verbose.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// Batch runs hold at most a few connections: one per concurrent plan.
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	log.Info("connected to database")
	return gdb, nil
}

func newGormLogger(log *slog.Logger) logger.Interface {
	level, emit := logger.Warn, slog.LevelWarn
	if log.Enabled(context.Background(), slog.LevelDebug) {
		level, emit = logger.Info, slog.LevelDebug
	}
	return logger.New(
		slog.NewLogLogger(log.Handler(), emit),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Close releases the pool behind a gorm handle.
func Close(d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureSchema creates schema if it does not exist. The name is quoted, so
// it may contain any characters.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(schema)).Error
}
