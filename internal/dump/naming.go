package dump

import (
	"strconv"
	"strings"
)

type fileKind int

const (
	kindUnknown fileKind = iota
	kindTableSchema
	kindDatabaseSchema
	kindSchemaView
	kindSchemaTriggers
	kindSchemaPost
	kindMetadata
	kindData
	kindSentinel
)

// classified is the parsed result of matching a dump directory entry
// against the naming convention.
type classified struct {
	kind     fileKind
	database string
	table    string
	part     uint64
}

// classify parses name against the dump directory's naming convention:
//
//	<db>.<table>-schema.sql[.gz]          table DDL
//	<db>-schema-create.sql[.gz]           database DDL
//	<db>.<table>.<part>.sql[.gz]          data chunk
//	<db>.<table>-schema-view.sql          view definition
//	<db>.<table>-schema-triggers.sql      trigger definitions
//	<db>-schema-post.sql                  post-data statements
//	<db>.<table>.metadata                 row count metadata
//	metadata                              root sentinel
//
// Unrecognized names classify as kindUnknown and are ignored by the walker.
func classify(name string) classified {
	if name == "metadata" {
		return classified{kind: kindSentinel}
	}

	base := strings.TrimSuffix(name, ".gz")

	switch {
	case strings.HasSuffix(base, "-schema-create.sql"):
		db := strings.TrimSuffix(base, "-schema-create.sql")
		return classified{kind: kindDatabaseSchema, database: db}

	case strings.HasSuffix(base, "-schema-post.sql"):
		db := strings.TrimSuffix(base, "-schema-post.sql")
		return classified{kind: kindSchemaPost, database: db}

	case strings.HasSuffix(base, "-schema-view.sql"):
		rest := strings.TrimSuffix(base, "-schema-view.sql")
		db, table, ok := splitFirst(rest)
		if !ok {
			return classified{kind: kindUnknown}
		}
		return classified{kind: kindSchemaView, database: db, table: table}

	case strings.HasSuffix(base, "-schema-triggers.sql"):
		rest := strings.TrimSuffix(base, "-schema-triggers.sql")
		db, table, ok := splitFirst(rest)
		if !ok {
			return classified{kind: kindUnknown}
		}
		return classified{kind: kindSchemaTriggers, database: db, table: table}

	case strings.HasSuffix(base, "-schema.sql"):
		rest := strings.TrimSuffix(base, "-schema.sql")
		db, table, ok := splitFirst(rest)
		if !ok {
			return classified{kind: kindUnknown}
		}
		return classified{kind: kindTableSchema, database: db, table: table}

	case strings.HasSuffix(base, ".metadata"):
		rest := strings.TrimSuffix(base, ".metadata")
		db, table, ok := splitFirst(rest)
		if !ok {
			return classified{kind: kindUnknown}
		}
		return classified{kind: kindMetadata, database: db, table: table}

	case strings.HasSuffix(base, ".sql"):
		rest := strings.TrimSuffix(base, ".sql")
		fields := strings.SplitN(rest, ".", 3)
		if len(fields) != 3 {
			return classified{kind: kindUnknown}
		}
		part, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return classified{kind: kindUnknown}
		}
		return classified{kind: kindData, database: fields[0], table: fields[1], part: part}
	}

	return classified{kind: kindUnknown}
}

// splitFirst splits "<db>.<table>" on the first '.', requiring a database
// and table name to not themselves contain dots.
func splitFirst(s string) (db, table string, ok bool) {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
