package restore

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/steveyegge/dbloader/internal/metrics"
)

// commitState tracks how many data statements have run since the last
// commit on a single connection.
type commitState struct {
	count int
}

// executeStatement runs one SQL statement on db. Schema statements (and the
// deferred index/constraint alters, which are treated the same way) never
// participate in batched commits; only plain data statements count toward
// commitCount and trigger an intermediate COMMIT.
func executeStatement(ctx context.Context, db *sql.DB, stmt string, isSchema bool, commitCount int, state *commitState, m *metrics.Metrics, database, table, filename string) error {
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		m.IncErrors(ctx)
		log.Printf("critical: restoring `%s`.`%s` from %s: %v", database, table, filename, err)
		return err
	}
	if isSchema || commitCount <= 1 {
		return nil
	}
	state.count++
	if state.count < commitCount {
		return nil
	}
	state.count = 0
	if _, err := db.ExecContext(ctx, "COMMIT"); err != nil {
		m.IncErrors(ctx)
		log.Printf("critical: committing data for `%s`.`%s` from %s: %v", database, table, filename, err)
		return err
	}
	if _, err := db.ExecContext(ctx, "START TRANSACTION"); err != nil {
		m.IncErrors(ctx)
		log.Printf("critical: starting transaction for `%s`.`%s` from %s: %v", database, table, filename, err)
		return err
	}
	return nil
}

// execMultiStatement executes a blob that may itself contain more than one
// ";\n"-terminated statement (a deferred index/constraint ALTER that was
// preceded by passthrough "/*!40..." conditional-execution comments copied
// out of the original schema file). Each fragment is treated as schema: it
// never participates in batched commits.
func execMultiStatement(ctx context.Context, db *sql.DB, blob string, m *metrics.Metrics, database, table, filename string) {
	state := &commitState{}
	for _, frag := range strings.Split(blob, ";\n") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		executeStatement(ctx, db, frag+";", true, 0, state, m, database, table, filename)
	}
}
