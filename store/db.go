// Package store opens gorm connections from a validated Config and runs the
// generic record operations used by the HTTP services.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/adonese/apikit/schema"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	pingTimeout   = 10 * time.Second
	slowThreshold = 200 * time.Millisecond
)

// DB wraps gorm.DB with the engine it was opened for.
type DB struct {
	*gorm.DB
	Engine string
	raw    *sqlx.DB
	log    *logrus.Logger
}

// Open validates cfg, connects, and applies the pool settings.
func Open(cfg Config, log *logrus.Logger) (*DB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialector, driver, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	return open(cfg, dialector, driver, log)
}

func open(cfg Config, dialector gorm.Dialector, driver string, log *logrus.Logger) (*DB, error) {
	level := logger.Warn
	if cfg.Echo {
		level = logger.Info
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		NowFunc:        schema.Now,
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Engine(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		sqlDB.SetMaxIdleConns(cfg.PoolSize)
		sqlDB.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
	}
	memory := cfg.Engine() == EngineSQLite && isMemorySQLite(cfg.URI)
	if memory {
		// every new connection to an in-memory database sees an empty one
		sqlDB.SetMaxOpenConns(1)
	}
	switch {
	case cfg.PoolRecycle > 0 && memory:
		// closing the only connection would drop the database with it
		log.WithField(ParamPoolRecycle, cfg.PoolRecycle).Warn("pool_recycle ignored for in-memory sqlite")
	case cfg.PoolRecycle > 0:
		sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)
	}
	if cfg.PoolTimeout > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.PoolTimeout)
	}
	if cfg.PoolPrePing {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ping %s: %w", cfg.Engine(), err)
		}
	}

	log.WithFields(logrus.Fields{
		"engine":    cfg.Engine(),
		"pool_size": cfg.PoolSize,
		"echo":      cfg.Echo,
	}).Debug("database opened")
	return &DB{DB: gdb, Engine: cfg.Engine(), raw: sqlx.NewDb(sqlDB, driver), log: log}, nil
}

// CreateTables migrates every model.
func (db *DB) CreateTables(ctx context.Context, models ...any) error {
	db.log.Debug("creating tables")
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		db.log.WithError(err).Error("error creating tables")
		return err
	}
	db.log.WithField("tables", len(models)).Info("tables created successfully")
	return nil
}

// InSession runs fn in a transaction, committing when it returns nil.
func (db *DB) InSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db.log.Debug("database session started")
	defer db.log.Debug("database session ended")
	err := db.WithContext(ctx).Transaction(fn)
	if err != nil {
		db.log.WithError(err).Error("database session rolled back")
	}
	return err
}

// Dialect is the gorm dialector name, e.g. "sqlite" or "postgres".
func (db *DB) Dialect() string {
	return db.Dialector.Name()
}

// Version asks the server for its version string.
func (db *DB) Version(ctx context.Context) (string, error) {
	q := "SELECT version()"
	if db.Engine == EngineSQLite {
		q = "SELECT sqlite_version()"
	}
	var v string
	if err := db.raw.GetContext(ctx, &v, q); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) Close() error {
	if db == nil || db.raw == nil {
		return nil
	}
	return db.raw.Close()
}
