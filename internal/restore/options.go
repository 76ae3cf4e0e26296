// Package restore implements the restore orchestrator: the worker pool,
// the statement executor, schema/purge handling, and the phase sequencing
// that ties the dump walker and CREATE TABLE rewriter together.
package restore

import "fmt"

// PurgeMode selects how an existing table is cleared before its schema is
// (re)applied.
type PurgeMode int

const (
	// PurgeNone leaves existing tables untouched; CREATE TABLE runs as-is
	// and fails if the table already exists.
	PurgeNone PurgeMode = iota
	// PurgeDrop drops the table (and any view of the same name) first.
	PurgeDrop
	// PurgeTruncate truncates the table and skips re-running its CREATE
	// TABLE; if the truncate fails, the CREATE TABLE runs without any drop.
	PurgeTruncate
	// PurgeDelete deletes the table's rows and skips re-running its CREATE
	// TABLE, with the same fallback as PurgeTruncate.
	PurgeDelete
)

// ParsePurgeMode parses the --purge-mode flag value.
func ParsePurgeMode(s string) (PurgeMode, error) {
	switch s {
	case "NONE":
		return PurgeNone, nil
	case "DROP":
		return PurgeDrop, nil
	case "TRUNCATE":
		return PurgeTruncate, nil
	case "DELETE":
		return PurgeDelete, nil
	default:
		return PurgeNone, fmt.Errorf("unknown purge mode %q", s)
	}
}

// Options collects every flag that shapes a restore run.
type Options struct {
	Directory          string
	Database           string // target database; empty means "use the dump's own names"
	SourceDB           string // restrict to this source database; empty means "all"
	Threads            int
	CommitCount        int // statements per transaction; <= 1 disables batching
	RowsPerChunk       int // INSERT rows per split statement; <= 0 disables splitting
	OverwriteTables    bool
	PurgeModeFlag      string // raw --purge-mode value, "" if unset
	EnableBinlog       bool
	SetNames           string
	InnoDBOptimizeKeys bool // fast index creation
	SyncBeforeAddIndex bool
	DisableRedoLog     bool
	Verbose            bool // log every statement executed, not just failures
}

func derivePurgeMode(opts *Options) (PurgeMode, error) {
	if opts.PurgeModeFlag != "" {
		return ParsePurgeMode(opts.PurgeModeFlag)
	}
	if opts.OverwriteTables {
		return PurgeDrop, nil
	}
	return PurgeNone, nil
}

// targetDatabase returns the database name jobs for sourceDatabase should
// be executed against: opts.Database when a remap was requested, otherwise
// the dump's own database name.
func targetDatabase(opts *Options, sourceDatabase string) string {
	if opts.Database != "" {
		return opts.Database
	}
	return sourceDatabase
}
