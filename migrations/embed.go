// Package migrations embeds the node's SQL migration files into the binary.
//
// Importing this package (for side effects) registers the files with the
// database package so db.Migrate can run without SQL on the filesystem.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS, ".")
}
