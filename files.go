package gate

import (
	"embed"
	"io/fs"
)

// MigrationsDir is the path of the embedded schema migration files.
const MigrationsDir = "data/sql/migrations"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded migrations for the users,
// password_reset and auth_events tables.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// Migrations returns the migration files rooted at the directory itself,
// ready to hand to a migration runner.
func Migrations() (fs.FS, error) {
	return fs.Sub(migrationsFS, MigrationsDir)
}
