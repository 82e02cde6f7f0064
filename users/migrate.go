package users

import (
	"context"
	"embed"

	"github.com/adonese/apikit/store"
)

//go:embed migrations
var migrations embed.FS

// Migrate creates or upgrades the users table.
func Migrate(ctx context.Context, db *store.DB) error {
	return db.Migrate(ctx, migrations, "migrations")
}
