package restore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// purgeTable clears an existing table per mode before its CREATE TABLE is
// (re)applied. skipCreate is true when the table's rows were cleared in
// place and its CREATE TABLE script should not be re-run; on a failed
// TRUNCATE or DELETE it falls through to a plain create, matching
// myloader.c's purge-then-create fallback.
func purgeTable(ctx context.Context, db *sql.DB, database, table string, mode PurgeMode) (skipCreate bool) {
	fq := fmt.Sprintf("`%s`.`%s`", database, table)
	switch mode {
	case PurgeDrop:
		log.Printf("Dropping table or view (if exists) %s", fq)
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+fq); err != nil {
			log.Printf("warning: dropping table %s: %v", fq, err)
		}
		if _, err := db.ExecContext(ctx, "DROP VIEW IF EXISTS "+fq); err != nil {
			log.Printf("warning: dropping view %s: %v", fq, err)
		}
		return false

	case PurgeTruncate:
		log.Printf("Truncating table %s", fq)
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+fq); err != nil {
			log.Printf("warning: truncating %s failed, falling back to create: %v", fq, err)
			return false
		}
		return true

	case PurgeDelete:
		log.Printf("Deleting content of table %s", fq)
		if _, err := db.ExecContext(ctx, "DELETE FROM "+fq); err != nil {
			log.Printf("warning: deleting from %s failed, falling back to create: %v", fq, err)
			return false
		}
		return true

	default:
		return false
	}
}

// ensureDatabase creates the target database if it doesn't already exist.
// When the run isn't remapping database names (or is remapping to the same
// name as the source), the dump's own "<db>-schema-create.sql" is replayed
// so any database-level options it carries are honored; otherwise a plain
// CREATE DATABASE is issued, since the schema-create file is named after
// the source database and can't be blindly replayed under a different name.
func (o *Orchestrator) ensureDatabase(ctx context.Context, sourceDatabase string) error {
	target := targetDatabase(o.opts, sourceDatabase)

	var exists bool
	row := o.db.QueryRowContext(ctx, fmt.Sprintf("SHOW CREATE DATABASE `%s`", target))
	var name, createStmt string
	if err := row.Scan(&name, &createStmt); err == nil {
		exists = true
	}
	if exists {
		return nil
	}

	log.Printf("Creating database `%s`", target)
	useSchemaFile := o.opts.Database == "" ||
		strings.EqualFold(o.opts.Database, sourceDatabase)
	if useSchemaFile {
		if filename, ok, err := o.dump.DatabaseSchemaFile(sourceDatabase); err == nil && ok {
			restoreFile(ctx, o.db, o.opts, o.opts.Directory, filename, sourceDatabase, "", true, false, false, nil, nil, o.metrics)
			return nil
		}
	}
	_, err := o.db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE `%s`", target))
	return err
}
