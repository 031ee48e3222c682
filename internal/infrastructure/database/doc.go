// Package database provides SQLite connectivity for a node's state history.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations embedded from the migrations package
//   - Connection lifecycle
//
// The history database is optional (database.enabled in the node
// settings). When it is disabled nothing is opened.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.NewConfig(settings.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// are additive-only: new columns must be NULLABLE or have DEFAULT values.
package database
