package rewriter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitInsertChunksByRows(t *testing.T) {
	stmt := "INSERT INTO t VALUES\n(1),(2),(3),(4),(5);\n"

	got := SplitInsert(stmt, 2)

	require.Equal(t, []string{
		"INSERT INTO t VALUES\n(1),(2);\n",
		"INSERT INTO t VALUES\n(3),(4);\n",
		"INSERT INTO t VALUES\n(5);\n",
	}, got)
}

func TestSplitInsertPreservesHeaderPerChunk(t *testing.T) {
	stmt := "INSERT INTO t VALUES\n(1,'a'),(2,'b'),(3,'c');"

	got := SplitInsert(stmt, 1)

	require.Len(t, got, 3)
	for _, s := range got {
		require.Contains(t, s, "INSERT INTO t VALUES")
	}
	require.Equal(t, "INSERT INTO t VALUES\n(1,'a');\n", got[0])
	require.Equal(t, "INSERT INTO t VALUES\n(2,'b');\n", got[1])
	require.Equal(t, "INSERT INTO t VALUES\n(3,'c');\n", got[2])
}

func TestSplitInsertNoOpWhenUnderThreshold(t *testing.T) {
	stmt := "INSERT INTO t VALUES\n(1),(2);\n"

	got := SplitInsert(stmt, 10)

	require.Equal(t, []string{stmt}, got)
}

func TestSplitInsertDisabled(t *testing.T) {
	stmt := "INSERT INTO t VALUES\n(1),(2),(3);\n"

	got := SplitInsert(stmt, 0)

	require.Equal(t, []string{stmt}, got)
}

func TestSplitInsertNoValuesTail(t *testing.T) {
	stmt := "INSERT INTO t VALUES"

	got := SplitInsert(stmt, 2)

	require.Equal(t, []string{stmt}, got)
}
