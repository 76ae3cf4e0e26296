package dump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["metadata"] = "dbloader restore test fixture\n"
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestOpenRequiresSentinel(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, "")
	require.Error(t, err)
}

func TestDataJobsSortedDescendingByRowsStable(t *testing.T) {
	dir := writeDump(t, map[string]string{
		"shop.small.1.sql":   "INSERT INTO small VALUES (1);\n",
		"shop.small.2.sql":   "INSERT INTO small VALUES (2);\n",
		"shop.big.1.sql":     "INSERT INTO big VALUES (1);\n",
		"shop.medium.1.sql":  "INSERT INTO medium VALUES (1);\n",
		"shop.small.metadata": "5\n",
		"shop.big.metadata":   "500\n",
		"shop.medium.metadata": "50\n",
	})

	d, err := Open(dir, "")
	require.NoError(t, err)

	tables, err := d.ReadTableInfo()
	require.NoError(t, err)
	require.Equal(t, uint64(500), tables["shop.big"].Rows)

	jobs, err := d.DataJobs(tables)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	require.Equal(t, "big", jobs[0].Table)
	require.Equal(t, "medium", jobs[1].Table)
	require.Equal(t, "small", jobs[2].Table)
	require.Equal(t, "small", jobs[3].Table)
	// ties within the same table keep directory enumeration order
	require.Equal(t, uint64(1), jobs[2].Part)
	require.Equal(t, uint64(2), jobs[3].Part)
}

func TestSourceDBFilter(t *testing.T) {
	dir := writeDump(t, map[string]string{
		"shop.orders.1.sql":   "INSERT INTO orders VALUES (1);\n",
		"other.widgets.1.sql": "INSERT INTO widgets VALUES (1);\n",
	})

	d, err := Open(dir, "shop")
	require.NoError(t, err)

	n, err := d.CountDataFiles()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTableSchemaFiles(t *testing.T) {
	dir := writeDump(t, map[string]string{
		"shop.orders-schema.sql": "CREATE TABLE `orders` (`id` bigint) ENGINE=InnoDB;\n",
		"shop-schema-create.sql": "CREATE DATABASE `shop`;\n",
	})

	d, err := Open(dir, "")
	require.NoError(t, err)

	files, err := d.TableSchemaFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "orders", files[0].Table)

	createFile, ok, err := d.DatabaseSchemaFile("shop")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "shop-schema-create.sql", createFile)
}
