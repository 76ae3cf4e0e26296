// Package dump walks a mydumper/myloader-style dump directory, classifying
// its files by the naming convention and producing the ordered list of
// restore jobs the orchestrator feeds to its worker pool.
package dump

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/steveyegge/dbloader/internal/job"
)

// TableInfo holds the per-table facts recorded in a dump's .metadata files.
type TableInfo struct {
	Rows uint64
}

// SchemaFile identifies one schema-bearing file in the dump directory.
type SchemaFile struct {
	Filename string
	Database string
	Table    string // empty for database-level files
}

// Directory is an opened dump directory, optionally filtered to a single
// source database.
type Directory struct {
	Path     string
	SourceDB string
}

// Open validates that path exists and carries the root "metadata" sentinel
// that marks a complete dump.
func Open(path, sourceDB string) (*Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening dump directory: %s is not a directory", path)
	}
	if _, err := os.Stat(filepath.Join(path, "metadata")); err != nil {
		return nil, fmt.Errorf("opening dump directory: missing metadata sentinel: %w", err)
	}
	return &Directory{Path: path, SourceDB: sourceDB}, nil
}

func (d *Directory) entries() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("reading dump directory: %w", err)
	}
	return entries, nil
}

func (d *Directory) included(database string) bool {
	return d.SourceDB == "" || d.SourceDB == database
}

// TableSchemaFiles returns every table DDL file ("<db>.<table>-schema.sql"),
// in directory enumeration order. Database DDL files are not included;
// callers needing database-create files should use DatabaseSchemaFile.
func (d *Directory) TableSchemaFiles() ([]SchemaFile, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}
	var out []SchemaFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind != kindTableSchema || !d.included(c.database) {
			continue
		}
		out = append(out, SchemaFile{Filename: e.Name(), Database: c.database, Table: c.table})
	}
	return out, nil
}

// DatabaseSchemaFile locates the "<db>-schema-create.sql[.gz]" file for
// database, if present.
func (d *Directory) DatabaseSchemaFile(database string) (string, bool, error) {
	entries, err := d.entries()
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind == kindDatabaseSchema && c.database == database {
			return e.Name(), true, nil
		}
	}
	return "", false, nil
}

// postFiles collects every file of the given kind whose parsed database
// name passes the source-database filter.
func (d *Directory) postFiles(want fileKind) ([]SchemaFile, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}
	var out []SchemaFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind != want || !d.included(c.database) {
			continue
		}
		out = append(out, SchemaFile{Filename: e.Name(), Database: c.database, Table: c.table})
	}
	return out, nil
}

// SchemaPostFiles returns every "<db>-schema-post.sql" file.
func (d *Directory) SchemaPostFiles() ([]SchemaFile, error) { return d.postFiles(kindSchemaPost) }

// ViewFiles returns every "<db>.<table>-schema-view.sql" file.
func (d *Directory) ViewFiles() ([]SchemaFile, error) { return d.postFiles(kindSchemaView) }

// TriggerFiles returns every "<db>.<table>-schema-triggers.sql" file.
func (d *Directory) TriggerFiles() ([]SchemaFile, error) { return d.postFiles(kindSchemaTriggers) }

// CountDataFiles reports how many data chunk files the dump contains,
// subject to the source-database filter.
func (d *Directory) CountDataFiles() (int, error) {
	entries, err := d.entries()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind == kindData && d.included(c.database) {
			n++
		}
	}
	return n, nil
}

// ReadTableInfo reads every ".metadata" file's row count, keyed by
// "<database>.<table>".
func (d *Directory) ReadTableInfo() (map[string]*TableInfo, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}
	info := make(map[string]*TableInfo)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind != kindMetadata || !d.included(c.database) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(d.Path, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading metadata file %s: %w", e.Name(), err)
		}
		rows, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			// Not every dumper writes a bare row count into .metadata files;
			// treat an unparsable one as unknown rather than fatal.
			rows = 0
		}
		info[tableKey(c.database, c.table)] = &TableInfo{Rows: rows}
	}
	return info, nil
}

func tableKey(database, table string) string {
	return database + "." + table
}

// DataJobs builds the ordered list of data-file restore jobs: every data
// chunk file, sorted descending by the owning table's row count (per
// tables), with ties broken by directory enumeration order via a stable
// sort.
func (d *Directory) DataJobs(tables map[string]*TableInfo) ([]*job.RestoreJob, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}
	var jobs []*job.RestoreJob
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c := classify(e.Name())
		if c.kind != kindData || !d.included(c.database) {
			continue
		}
		jobs = append(jobs, &job.RestoreJob{
			Filename: e.Name(),
			Database: c.database,
			Table:    c.table,
			Part:     c.part,
		})
	}

	rows := func(rj *job.RestoreJob) uint64 {
		if ti, ok := tables[tableKey(rj.Database, rj.Table)]; ok {
			return ti.Rows
		}
		return 0
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return rows(jobs[i]) > rows(jobs[j])
	})
	return jobs, nil
}
