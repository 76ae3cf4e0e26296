// Package dbconn builds MySQL-family connections and applies the session
// settings the restore orchestrator and its workers depend on.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/go-sql-driver/mysql"
)

// Params describes how to reach the target server. Socket, when set, takes
// priority over Host/Port.
type Params struct {
	Host     string
	Port     int
	Socket   string
	User     string
	Password string
}

// DSN builds a go-sql-driver/mysql data source name for database (which may
// be empty to connect without selecting one).
func (p Params) DSN(database string) string {
	addr := fmt.Sprintf("tcp(%s:%d)", p.Host, p.Port)
	if p.Socket != "" {
		addr = fmt.Sprintf("unix(%s)", p.Socket)
	}
	userInfo := url.User(p.User)
	if p.Password != "" {
		userInfo = url.UserPassword(p.User, p.Password)
	}
	return fmt.Sprintf("%s@%s/%s?multiStatements=false", userInfo.String(), addr, database)
}

// Open dials a single connection (no pooling: every orchestrator and worker
// connection is exclusive, never shared, per the no-automatic-reconnect
// design) against database.
func Open(ctx context.Context, p Params, database string) (*sql.DB, error) {
	db, err := sql.Open("mysql", p.DSN(database))
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to server: %w", err)
	}
	return db, nil
}

// SessionOptions configures the per-connection SET statements issued after
// connecting.
type SessionOptions struct {
	EnableBinlog bool
	SetNames     string
	BatchCommits bool
}

// ApplyOrchestratorSession mirrors the settings myloader.c's main() applies
// to its own connection before the worker pool starts.
func ApplyOrchestratorSession(ctx context.Context, db *sql.DB, opts SessionOptions) {
	execWarn(ctx, db, "SET SESSION wait_timeout = 2147483")
	if !opts.EnableBinlog {
		execWarn(ctx, db, "SET SQL_LOG_BIN=0")
	}
}

// ApplyWorkerSession mirrors the settings each worker thread applies to its
// own connection before it starts popping jobs.
func ApplyWorkerSession(ctx context.Context, db *sql.DB, opts SessionOptions) {
	execWarn(ctx, db, "SET SESSION wait_timeout = 2147483")
	if !opts.EnableBinlog {
		execWarn(ctx, db, "SET SQL_LOG_BIN=0")
	}
	setNames := opts.SetNames
	if setNames == "" {
		setNames = "binary"
	}
	execWarn(ctx, db, fmt.Sprintf("/*!40101 SET NAMES %s */", setNames))
	execWarn(ctx, db, "SET SQL_MODE='NO_AUTO_VALUE_ON_ZERO'")
	execWarn(ctx, db, "SET UNIQUE_CHECKS=0")
	execWarn(ctx, db, "SET FOREIGN_KEY_CHECKS=0")
	if opts.BatchCommits {
		execWarn(ctx, db, "SET autocommit=0")
	}
}

func execWarn(ctx context.Context, db *sql.DB, stmt string) {
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		log.Printf("warning: session setting %q failed: %v", stmt, err)
	}
}
