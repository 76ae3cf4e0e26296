// Package rewriter implements the textual transforms applied to dumped
// schema and data statements: splitting a CREATE TABLE into a no-index
// create plus deferred ADD INDEX / ADD CONSTRAINT alters, and splitting
// oversized INSERT statements into smaller batches.
package rewriter

import "strings"

var indexLinePrefixes = []string{"  KEY", "  UNIQUE", "  SPATIAL", "  FULLTEXT", "  INDEX"}

// RewriteCreateTable splits an InnoDB CREATE TABLE statement into a create
// with its secondary indexes stripped, the deferred ALTER TABLE ... ADD
// INDEX statement(s) that restore them, and the deferred ALTER TABLE ...
// ADD CONSTRAINT statement for foreign keys and other constraints.
//
// The index defined on the AUTO_INCREMENT column, if any, is left in place:
// InnoDB requires it at create time. rewrote is false when stmt is not an
// InnoDB CREATE TABLE, in which case noIndexCreate is just stmt unchanged.
func RewriteCreateTable(stmt, database, table string) (noIndexCreate string, indexAlters []string, constraintAlter string, rewrote bool) {
	if !strings.Contains(stmt, "ENGINE=InnoDB") {
		return stmt, nil, "", false
	}

	var body strings.Builder
	alters := []*strings.Builder{newAlterHeader(database, table)}
	constraint := newAlterHeader(database, table)
	autoincColumn := ""
	fulltextCount := 0
	haveIndex := false
	haveConstraint := false

	for _, line := range strings.Split(stmt, "\n") {
		switch {
		case isIndexLine(line):
			if autoincColumn != "" && strings.Contains(line, autoincColumn) {
				body.WriteString(line)
				body.WriteByte('\n')
				continue
			}
			haveIndex = true
			if strings.Contains(line, "  FULLTEXT") {
				fulltextCount++
			}
			// A dump with more than one FULLTEXT index can't have them all
			// added by a single ALTER TABLE: every FULLTEXT index after the
			// first starts a new ALTER TABLE, so no ALTER carries more than
			// one. Non-FULLTEXT indexes go into whichever ALTER is current.
			if fulltextCount > 1 {
				fulltextCount = 1
				alters = append(alters, newAlterHeader(database, table))
			}
			cur := alters[len(alters)-1]
			cur.WriteString("\n ADD")
			cur.WriteString(line)

		case strings.HasPrefix(line, "  CONSTRAINT"):
			haveConstraint = true
			constraint.WriteString("\n ADD")
			constraint.WriteString(line)

		default:
			if autoincColumn == "" && strings.Contains(line, "AUTO_INCREMENT") {
				if col := backtickedColumn(line); col != "" {
					autoincColumn = "(`" + col + "`"
				}
			}
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}

	noIndexCreate = strings.ReplaceAll(body.String(), ",\n)", "\n)")

	if haveIndex {
		for _, b := range alters {
			indexAlters = append(indexAlters, finishAlterTable(b.String()))
		}
	}
	if haveConstraint {
		constraintAlter = finishAlterTable(constraint.String())
	}
	return noIndexCreate, indexAlters, constraintAlter, true
}

func isIndexLine(line string) bool {
	for _, p := range indexLinePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// backtickedColumn extracts the name between the first pair of backticks in
// a column-definition line, e.g. "  `id` bigint ... AUTO_INCREMENT," -> "id".
func backtickedColumn(line string) string {
	parts := strings.SplitN(line, "`", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func newAlterHeader(database, table string) *strings.Builder {
	b := &strings.Builder{}
	b.WriteString("ALTER TABLE `")
	b.WriteString(database)
	b.WriteString("`.`")
	b.WriteString(table)
	b.WriteString("` ")
	return b
}

// finishAlterTable closes an alter statement being built: the builder's
// content may end in the "," copied from the last appended clause line, so
// a comma within the last four bytes is swapped for the statement
// terminator; otherwise the terminator is appended.
func finishAlterTable(s string) string {
	if idx := strings.LastIndexByte(s, ','); idx > len(s)-5 {
		return s[:idx] + ";\n"
	}
	return s + ";\n"
}
