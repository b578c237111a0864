// Package database provides SQLite connectivity for the bus service.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Schema migrations read from an fs.FS (normally the embedded migrations package)
//   - Health checks
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive-only. Each YYYYMMDD_HHMMSS_name.up.sql file may
// have a matching .down.sql used by MigrateDown, which the binary runs as
// "graylogic-bus migrate-down".
package database
