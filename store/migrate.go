package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// Migrate applies the goose migrations stored under dir/<engine> in fsys,
// e.g. "migrations/sqlite/00001_create_users.sql".
func (db *DB) Migrate(ctx context.Context, fsys fs.FS, dir string) error {
	if db == nil || db.raw == nil {
		return fmt.Errorf("db is nil")
	}
	dialect, err := gooseDialect(db.Engine)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetLogger(db.log)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	dir = path.Join(dir, db.Engine)
	if err := goose.UpContext(ctx, db.raw.DB, dir); err != nil {
		db.log.WithError(err).WithField("dir", dir).Error("migration failed")
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.raw.DB)
	if err != nil {
		return err
	}
	db.log.WithField("version", version).Info("migrations applied")
	return nil
}

func gooseDialect(engine string) (string, error) {
	switch engine {
	case EngineSQLite:
		return "sqlite3", nil
	case EnginePostgreSQL:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migration dialect for %q", engine)
	}
}
