package restore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/steveyegge/dbloader/internal/job"
	"github.com/steveyegge/dbloader/internal/metrics"
	"github.com/steveyegge/dbloader/internal/queue"
	"github.com/steveyegge/dbloader/internal/rewriter"
	"github.com/steveyegge/dbloader/internal/script"
)

// restoreFile replays one dump file's statement stream on db.
//
// isSchema marks the file as schema (no batched commits). needUse issues a
// USE before the first statement, switching to the remap target database
// when one was requested. isCreateTable enables the fast-index CREATE
// TABLE rewrite, deferring the resulting ADD INDEX / ADD CONSTRAINT
// statements onto fastIndexQ / constraintsQ instead of executing them here.
func restoreFile(ctx context.Context, db *sql.DB, opts *Options, directory, filename, database, table string, isSchema, needUse, isCreateTable bool, fastIndexQ, constraintsQ *queue.Queue[*job.Job], m *metrics.Metrics) {
	path := filepath.Join(directory, filename)
	r, err := script.Open(path)
	if err != nil {
		log.Printf("critical: opening %s: %v", filename, err)
		m.IncErrors(ctx)
		return
	}
	defer r.Close()

	target := targetDatabase(opts, database)

	if needUse {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("USE `%s`", target)); err != nil {
			log.Printf("critical: switching to database `%s` while restoring `%s`.`%s` from %s: %v", target, database, table, filename, err)
			m.IncErrors(ctx)
			return
		}
	}

	if !isSchema && opts.CommitCount > 1 {
		if _, err := db.ExecContext(ctx, "START TRANSACTION"); err != nil {
			log.Printf("critical: starting transaction for `%s`.`%s` from %s: %v", database, table, filename, err)
			m.IncErrors(ctx)
			return
		}
	}

	state := &commitState{}
	var pendingPrefix strings.Builder

	for {
		stmt, eof, err := r.Next()
		if err != nil {
			log.Printf("critical: reading %s: %v", filename, err)
			m.IncErrors(ctx)
			return
		}
		if stmt != "" {
			if opts.Verbose {
				log.Printf("restoring `%s`.`%s` from %s: %s", database, table, filename, firstLine(stmt))
			}
			switch {
			case isCreateTable && opts.InnoDBOptimizeKeys && strings.HasPrefix(strings.TrimSpace(stmt), "/*!40"):
				// A version-gated SET wrapped in a conditional-execution
				// comment, dumped alongside the CREATE TABLE: run it now as
				// part of the schema, and carry it forward so it's replayed
				// again ahead of the deferred ALTER, which runs on a
				// different connection.
				pendingPrefix.WriteString(stmt)
				executeStatement(ctx, db, stmt, true, 0, state, m, database, table, filename)

			case isCreateTable && opts.InnoDBOptimizeKeys:
				noIndex, indexAlters, constraintAlter, rewrote := rewriter.RewriteCreateTable(stmt, target, table)
				if !rewrote {
					executeStatement(ctx, db, stmt, true, 0, state, m, database, table, filename)
					break
				}
				executeStatement(ctx, db, noIndex, true, 0, state, m, database, table, filename)
				prefix := pendingPrefix.String()
				for i, alter := range indexAlters {
					text := alter
					if i == 0 && prefix != "" {
						text = prefix + text
					}
					fastIndexQ.Push(job.RestoreString(&job.RestoreJob{Database: target, Table: table, Statement: text}))
				}
				if constraintAlter != "" {
					text := constraintAlter
					if len(indexAlters) == 0 && prefix != "" {
						text = prefix + text
					}
					constraintsQ.Push(job.RestoreString(&job.RestoreJob{Database: target, Table: table, Statement: text}))
				}

			case !isSchema && opts.RowsPerChunk > 0 && strings.HasPrefix(stmt, "INSERT"):
				for _, part := range rewriter.SplitInsert(stmt, opts.RowsPerChunk) {
					executeStatement(ctx, db, part, false, opts.CommitCount, state, m, database, table, filename)
				}

			default:
				executeStatement(ctx, db, stmt, isSchema, opts.CommitCount, state, m, database, table, filename)
			}
		}
		if eof {
			break
		}
	}

	if !isSchema && opts.CommitCount > 1 {
		if _, err := db.ExecContext(ctx, "COMMIT"); err != nil {
			log.Printf("critical: committing data for `%s`.`%s` from %s: %v", database, table, filename, err)
			m.IncErrors(ctx)
		}
	}
}

// firstLine returns stmt's first line, truncated, for --verbose logging so
// a multi-row INSERT doesn't flood the log with its full VALUES list.
func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		stmt = stmt[:i]
	}
	const max = 200
	if len(stmt) > max {
		return stmt[:max] + "..."
	}
	return stmt
}
