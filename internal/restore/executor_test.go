package restore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steveyegge/dbloader/internal/metrics"
)

// recordingDriver is a minimal database/sql/driver implementation that just
// records every statement it's asked to execute, so the batched-commit
// logic in executeStatement can be tested without a real server.
type recordingDriver struct {
	mu         sync.Mutex
	statements []string
}

func (d *recordingDriver) Open(name string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{c: c, query: query}, nil
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return recordingTx{}, nil }

type recordingTx struct{}

func (recordingTx) Commit() error   { return nil }
func (recordingTx) Rollback() error { return nil }

type recordingStmt struct {
	c     *recordingConn
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }
func (s *recordingStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.c.d.mu.Lock()
	s.c.d.statements = append(s.c.d.statements, s.query)
	s.c.d.mu.Unlock()
	return driver.RowsAffected(1), nil
}
func (s *recordingStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, sql.ErrNoRows
}

var registerOnce sync.Once
var testDriver = &recordingDriver{}

func openRecordingDB(t *testing.T) *sql.DB {
	t.Helper()
	registerOnce.Do(func() {
		sql.Register("dbloader-recording-test", testDriver)
	})
	testDriver.mu.Lock()
	testDriver.statements = nil
	testDriver.mu.Unlock()
	db, err := sql.Open("dbloader-recording-test", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecuteStatementBatchesCommits(t *testing.T) {
	db := openRecordingDB(t)
	m := metrics.New()
	state := &commitState{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := executeStatement(ctx, db, "INSERT INTO t VALUES (1);", false, 3, state, m, "db", "t", "f.sql")
		require.NoError(t, err)
	}

	testDriver.mu.Lock()
	defer testDriver.mu.Unlock()
	require.Contains(t, testDriver.statements, "COMMIT")
	require.Contains(t, testDriver.statements, "START TRANSACTION")
	require.Equal(t, 0, state.count)
}

func TestExecuteStatementSchemaNeverBatches(t *testing.T) {
	db := openRecordingDB(t)
	m := metrics.New()
	state := &commitState{}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := executeStatement(ctx, db, "CREATE TABLE t (id int);", true, 3, state, m, "db", "t", "f.sql")
		require.NoError(t, err)
	}

	testDriver.mu.Lock()
	defer testDriver.mu.Unlock()
	require.NotContains(t, testDriver.statements, "COMMIT")
	require.Equal(t, 0, state.count)
}

func TestExecuteStatementRecordsErrors(t *testing.T) {
	db := openRecordingDB(t)
	m := metrics.New()
	state := &commitState{}
	ctx := context.Background()
	db.Close() // force ExecContext to fail

	err := executeStatement(ctx, db, "INSERT INTO t VALUES (1);", false, 0, state, m, "db", "t", "f.sql")
	require.Error(t, err)
	require.Equal(t, uint64(1), m.ErrorCount())
}
