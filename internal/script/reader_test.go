package script

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, contents []byte, gz bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if !gz {
		require.NoError(t, os.WriteFile(path, contents, 0o644))
		return path
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(contents)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var stmts []string
	for {
		stmt, eof, err := r.Next()
		require.NoError(t, err)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		if eof {
			break
		}
	}
	return stmts
}

func TestReaderSplitsOnTerminator(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "d.t.00000.sql", []byte("INSERT INTO t VALUES (1);\nINSERT INTO t VALUES (2);\n"), false)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	stmts := readAll(t, r)
	require.Equal(t, []string{
		"INSERT INTO t VALUES (1);\n",
		"INSERT INTO t VALUES (2);\n",
	}, stmts)
}

func TestReaderHandlesGzip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "d.t.00000.sql.gz", []byte("CREATE TABLE t(a INT);\n"), true)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	stmts := readAll(t, r)
	require.Equal(t, []string{"CREATE TABLE t(a INT);\n"}, stmts)
}

func TestReaderSurvivesChunkBoundary(t *testing.T) {
	dir := t.TempDir()
	// Longer than the 256-byte chunk size, to exercise multi-read assembly.
	long := "INSERT INTO t VALUES " + string(bytes.Repeat([]byte("(1),"), 100)) + "(2);\n"
	path := writeFile(t, dir, "d.t.00000.sql", []byte(long), false)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	stmts := readAll(t, r)
	require.Equal(t, []string{long}, stmts)
}

func TestReaderFinalStatementWithoutTerminator(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "d.t.00000.sql", []byte("INSERT INTO t VALUES (1)"), false)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	stmts := readAll(t, r)
	require.Equal(t, []string{"INSERT INTO t VALUES (1)"}, stmts)
}
