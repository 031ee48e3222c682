package database

import "errors"

var (
	// ErrNoPath is returned by Open when Config.Path is empty.
	ErrNoPath = errors.New("database: path is required")

	// ErrMigrationNotFound is returned by MigrateDown when the latest applied
	// version has no matching file.
	ErrMigrationNotFound = errors.New("database: migration not found")

	// ErrNoDownMigration is returned by MigrateDown when the latest migration
	// cannot be reverted.
	ErrNoDownMigration = errors.New("database: migration has no down script")
)
